package middleware

import "github.com/capitalpay/capitalpay-api/models"

// Policy functions express who may act on which resource. They are called
// explicitly from handlers rather than hidden inside middleware factories.

// CanManagePost allows admins, moderators, and the post's author.
func CanManagePost(principal *models.User, post *models.BlogPost) bool {
	if principal == nil {
		return false
	}
	if principal.IsStaff() {
		return true
	}
	return post != nil && post.AuthorID == principal.ID
}

// CanManageContacts allows admins and moderators.
func CanManageContacts(principal *models.User) bool {
	return principal != nil && principal.IsStaff()
}

// CanAdministerUsers allows admins only.
func CanAdministerUsers(principal *models.User) bool {
	return principal != nil && principal.IsAdmin()
}
