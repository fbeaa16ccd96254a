package filter

// Eligible reports whether a message author is subject to filtering.
// System messages (empty author) always are; the local user never is.
// Friends and clan members are exempt unless the matching flag is set.
func Eligible(author, local string, isFriend, isClanMember, filterFriends, filterClan bool) bool {
	if author == "" {
		return true
	}
	if author == local {
		return false
	}
	return (filterFriends || !isFriend) && (filterClan || !isClanMember)
}
