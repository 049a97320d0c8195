package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalpay/capitalpay-api/models"
)

func TestUserEndpointsAdminOnly(t *testing.T) {
	r, db := newTestEnv(t)
	_, modToken := seedUser(t, db, "Mod", "mod@example.com", models.RoleModerator)
	_, userToken := seedUser(t, db, "Reader", "reader@example.com", models.RoleUser)

	for _, token := range []string{modToken, userToken} {
		w := doJSON(r, http.MethodGet, "/api/users", nil, token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}

	w := doJSON(r, http.MethodGet, "/api/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsersFilters(t *testing.T) {
	r, db := newTestEnv(t)
	_, adminToken := seedUser(t, db, "Admin", "admin@example.com", models.RoleAdmin)
	seedUser(t, db, "Mod", "mod@example.com", models.RoleModerator)
	inactive, _ := seedUser(t, db, "Ghost", "ghost@example.com", models.RoleUser)
	require.NoError(t, db.Model(&inactive).UpdateColumn("is_active", false).Error)

	w := doJSON(r, http.MethodGet, "/api/users?role=moderator", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var users []models.User
	decodeData(t, w, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "mod@example.com", users[0].Email)

	w = doJSON(r, http.MethodGet, "/api/users?isActive=false", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "ghost@example.com", users[0].Email)

	w = doJSON(r, http.MethodGet, "/api/users?search=GHOST", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &users)
	require.Len(t, users, 1, "search is case-insensitive")
}

func TestCreateUserWithRole(t *testing.T) {
	r, db := newTestEnv(t)
	_, token := seedUser(t, db, "Admin", "admin@example.com", models.RoleAdmin)

	w := doJSON(r, http.MethodPost, "/api/users", gin.H{
		"name": "New Mod", "email": "newmod@example.com", "password": "secret123", "role": "moderator",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.User
	decodeData(t, w, &created)
	assert.Equal(t, models.RoleModerator, created.Role)

	w = doJSON(r, http.MethodPost, "/api/users", gin.H{
		"name": "Bad Role", "email": "bad@example.com", "password": "secret123", "role": "superuser",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid role is required (user, admin, moderator)", decode(t, w).Message)
}

func TestGetUserWithAuthoringStats(t *testing.T) {
	r, db := newTestEnv(t)
	admin, token := seedUser(t, db, "Admin", "admin@example.com", models.RoleAdmin)
	for i := 1; i <= 7; i++ {
		seedPublishedPost(t, db, admin.ID, fmt.Sprintf("Admin Post %d", i))
	}

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/users/%d", admin.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got struct {
		User  models.User `json:"user"`
		Stats struct {
			BlogPostsCount int64 `json:"blogPostsCount"`
			RecentBlogs    []struct {
				ID    uint   `json:"id"`
				Title string `json:"title"`
			} `json:"recentBlogs"`
		} `json:"stats"`
	}
	decodeData(t, w, &got)
	assert.Equal(t, admin.ID, got.User.ID)
	assert.Equal(t, int64(7), got.Stats.BlogPostsCount)
	assert.Len(t, got.Stats.RecentBlogs, 5)
}

func TestUpdateUserEmailTaken(t *testing.T) {
	r, db := newTestEnv(t)
	_, token := seedUser(t, db, "Admin", "admin@example.com", models.RoleAdmin)
	other, _ := seedUser(t, db, "Other", "other@example.com", models.RoleUser)

	w := doJSON(r, http.MethodPut, fmt.Sprintf("/api/users/%d", other.ID), gin.H{
		"email": "Admin@Example.com",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email is already taken by another user", decode(t, w).Message)
}

func TestDeleteLastAdminRejected(t *testing.T) {
	r, db := newTestEnv(t)
	admin, token := seedUser(t, db, "Only Admin", "admin@example.com", models.RoleAdmin)

	w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/users/%d", admin.ID), nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot delete the last admin user", decode(t, w).Message)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteUserReassignsPosts(t *testing.T) {
	r, db := newTestEnv(t)
	heir, token := seedUser(t, db, "Heir", "heir@example.com", models.RoleAdmin)
	leaving, _ := seedUser(t, db, "Leaving", "leaving@example.com", models.RoleAdmin)
	seedPublishedPost(t, db, leaving.ID, "First Legacy Post")
	seedPublishedPost(t, db, leaving.ID, "Second Legacy Post")

	w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/users/%d", leaving.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		TransferredPosts int64 `json:"transferredPosts"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, int64(2), data.TransferredPosts)

	var count int64
	require.NoError(t, db.Model(&models.BlogPost{}).Where("author_id = ?", heir.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count, "orphaned posts move to another admin")

	var gone models.User
	err := db.First(&gone, leaving.ID).Error
	assert.Error(t, err, "deleted user is no longer visible")
}

func TestDeleteUserFreesEmail(t *testing.T) {
	r, db := newTestEnv(t)
	_, token := seedUser(t, db, "Admin", "admin@example.com", models.RoleAdmin)
	former, _ := seedUser(t, db, "Former", "former@example.com", models.RoleUser)

	w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/users/%d", former.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/users", gin.H{
		"name": "Returning", "email": "former@example.com", "password": "secret123",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, "a deleted user's email is reusable: %s", w.Body.String())

	var created models.User
	decodeData(t, w, &created)
	assert.Equal(t, "former@example.com", created.Email)
	assert.NotEqual(t, former.ID, created.ID)

	// public registration can claim it too after another delete
	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(r, http.MethodPost, "/api/auth/register", gin.H{
		"name": "Back Again", "email": "former@example.com", "password": "secret123",
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestChangeRoleLastAdminGuard(t *testing.T) {
	r, db := newTestEnv(t)
	admin, token := seedUser(t, db, "Only Admin", "admin@example.com", models.RoleAdmin)

	w := doJSON(r, http.MethodPatch, fmt.Sprintf("/api/users/%d/role", admin.ID), gin.H{"role": "user"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot remove admin role from the last admin user", decode(t, w).Message)

	// with a second admin on board the demotion goes through
	second, _ := seedUser(t, db, "Second", "second@example.com", models.RoleAdmin)
	w = doJSON(r, http.MethodPatch, fmt.Sprintf("/api/users/%d/role", second.ID), gin.H{"role": "moderator"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.User
	require.NoError(t, db.First(&got, second.ID).Error)
	assert.Equal(t, models.RoleModerator, got.Role)
}

func TestToggleStatusLastActiveAdminGuard(t *testing.T) {
	r, db := newTestEnv(t)
	admin, token := seedUser(t, db, "Only Admin", "admin@example.com", models.RoleAdmin)
	reader, _ := seedUser(t, db, "Reader", "reader@example.com", models.RoleUser)

	w := doJSON(r, http.MethodPatch, fmt.Sprintf("/api/users/%d/toggle-status", admin.ID), nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot deactivate the last active admin user", decode(t, w).Message)

	w = doJSON(r, http.MethodPatch, fmt.Sprintf("/api/users/%d/toggle-status", reader.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		IsActive bool `json:"isActive"`
	}
	decodeData(t, w, &data)
	assert.False(t, data.IsActive)
}

func TestUserStats(t *testing.T) {
	r, db := newTestEnv(t)
	_, token := seedUser(t, db, "Admin", "admin@example.com", models.RoleAdmin)
	seedUser(t, db, "Mod", "mod@example.com", models.RoleModerator)
	seedUser(t, db, "Reader", "reader@example.com", models.RoleUser)
	inactive, _ := seedUser(t, db, "Ghost", "ghost@example.com", models.RoleUser)
	require.NoError(t, db.Model(&inactive).UpdateColumn("is_active", false).Error)

	w := doJSON(r, http.MethodGet, "/api/users/stats", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats struct {
		TotalUsers     int64            `json:"totalUsers"`
		ActiveUsers    int64            `json:"activeUsers"`
		InactiveUsers  int64            `json:"inactiveUsers"`
		AdminUsers     int64            `json:"adminUsers"`
		ModeratorUsers int64            `json:"moderatorUsers"`
		RegularUsers   int64            `json:"regularUsers"`
		NewUsers       int64            `json:"newUsers"`
		UsersByRole    map[string]int64 `json:"usersByRole"`
	}
	decodeData(t, w, &stats)
	assert.Equal(t, int64(4), stats.TotalUsers)
	assert.Equal(t, int64(3), stats.ActiveUsers)
	assert.Equal(t, int64(1), stats.InactiveUsers)
	assert.Equal(t, int64(1), stats.AdminUsers)
	assert.Equal(t, int64(1), stats.ModeratorUsers)
	assert.Equal(t, int64(2), stats.RegularUsers)
	assert.Equal(t, int64(4), stats.NewUsers)
	assert.Equal(t, int64(2), stats.UsersByRole[models.RoleUser])
}
