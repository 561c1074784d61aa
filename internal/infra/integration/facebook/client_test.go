package facebook_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/integration/facebook"
)

func TestFetchLead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/123456", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		_, _ = w.Write([]byte(`{"id":"123456","field_data":[
			{"name":"full_name","values":["Jane Doe"]},
			{"name":"email","values":["jane@example.com"]},
			{"name":"phone_number","values":["+491701234567"]}]}`))
	}))
	defer srv.Close()

	lead, err := facebook.NewClient("tok", srv.URL, 0).FetchLead(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, entity.ContactFields{Name: "Jane Doe", Email: "jane@example.com", Phone: "+491701234567"}, lead)
}

func TestFetchLeadErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	_, err := facebook.NewClient("tok", srv.URL, 0).FetchLead(context.Background(), "1")
	assert.ErrorContains(t, err, "Invalid OAuth access token.")

	_, err = facebook.NewClient("", srv.URL, 0).FetchLead(context.Background(), "1")
	assert.ErrorIs(t, err, facebook.ErrNoAccessToken)
}

func TestContactFromFields(t *testing.T) {
	got := facebook.ContactFromFields([]facebook.FieldData{
		{Name: "Vorname", Values: []string{"Erika"}},
		{Name: "Nachname", Values: []string{"Musterfrau"}},
		{Name: "Telefonnummer", Values: []string{"0170 1234567"}},
		{Name: "E-Mail-Adresse", Values: []string{"erika@example.com"}},
		{Name: "empty", Values: nil},
	})
	assert.Equal(t, entity.ContactFields{Name: "Erika Musterfrau", Email: "erika@example.com", Phone: "0170 1234567"}, got)
}
