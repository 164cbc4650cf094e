package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movapay/movapay/internal/models"
)

func createTestTranslation(t *testing.T, env *testEnv, user *models.User, sourceLang, targetLang string) *models.Translation {
	t.Helper()
	payment := createPendingOrder(t, env, user, "text for "+user.Username+" "+targetLang)
	closed, err := models.ClosePayment(env.db, payment.ID, models.PaymentStatusSuccess)
	require.NoError(t, err)
	require.True(t, closed)
	require.NoError(t, models.DeletePendingTranslation(env.db, payment.ID))

	translation := models.Translation{
		UserID:         user.ID,
		PaymentID:      payment.ID,
		SourceText:     "hello",
		TranslatedText: "привіт",
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
	}
	require.NoError(t, env.db.Create(&translation).Error)
	return &translation
}

func TestListTranslationsScopedAndFiltered(t *testing.T) {
	env := setupEnv(t)
	alice, aliceToken := createTestUser(t, env, "alice", false)
	bob, _ := createTestUser(t, env, "bob", false)
	_, adminToken := createTestUser(t, env, "root", true)

	createTestTranslation(t, env, alice, "EN", "UK")
	createTestTranslation(t, env, alice, "EN", "FR")
	createTestTranslation(t, env, bob, "EN", "UK")

	w := doRequest(t, env, http.MethodGet, "/v1/translations", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var translations []models.Translation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &translations))
	assert.Len(t, translations, 2)

	w = doRequest(t, env, http.MethodGet, "/v1/translations?target_lang=fr", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &translations))
	require.Len(t, translations, 1)
	assert.Equal(t, "FR", translations[0].TargetLang)

	w = doRequest(t, env, http.MethodGet, "/v1/translations", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &translations))
	assert.Len(t, translations, 3)
}

func TestGetTranslationOwnership(t *testing.T) {
	env := setupEnv(t)
	owner, ownerToken := createTestUser(t, env, "owner", false)
	_, otherToken := createTestUser(t, env, "other", false)
	translation := createTestTranslation(t, env, owner, "EN", "UK")

	w := doRequest(t, env, http.MethodGet, "/v1/translations/"+translation.ID.String(), ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, env, http.MethodGet, "/v1/translations/"+translation.ID.String(), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteTranslationRequiresAdmin(t *testing.T) {
	env := setupEnv(t)
	owner, ownerToken := createTestUser(t, env, "maria", false)
	_, adminToken := createTestUser(t, env, "boss", true)
	translation := createTestTranslation(t, env, owner, "EN", "UK")

	w := doRequest(t, env, http.MethodDelete, "/v1/translations/"+translation.ID.String(), ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, env, http.MethodDelete, "/v1/translations/"+translation.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Translation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStatsAdminOnly(t *testing.T) {
	env := setupEnv(t)
	user, userToken := createTestUser(t, env, "plain", false)
	_, adminToken := createTestUser(t, env, "admin", true)

	createTestTranslation(t, env, user, "EN", "UK")
	createTestTranslation(t, env, user, "EN", "FR")

	w := doRequest(t, env, http.MethodGet, "/v1/stats", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, env, http.MethodGet, "/v1/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stat models.DailyStat
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stat))
	assert.Equal(t, int64(2), stat.TotalTranslations)
	assert.Equal(t, int64(2), stat.TotalUsers)
	assert.Equal(t, int64(1), stat.UsersWithTranslations)
	assert.True(t, stat.TotalRevenue.IsPositive())
	assert.True(t, stat.AverageCheck.IsPositive())
}
