package salsa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salsaauth "github.com/hancush/salsa-auth"
)

func TestGetSupporterFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, supporterSearchPath, r.URL.Path)
		assert.Equal(t, "token-123", r.Header.Get(authTokenHeader))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"maya@example.org"}, req.Payload.Identifiers)
		assert.Equal(t, identifierTypeEmail, req.Payload.IdentifierType)

		json.NewEncoder(w).Encode(supporterEnvelope{
			Payload: upsertBody{
				Supporters: []supporterRecord{{
					SupporterID: "sup-1",
					Result:      resultFound,
					FirstName:   "Maya",
					LastName:    "Rivera",
					Contacts: []contact{
						{Type: contactTypeEmail, Value: "maya@example.org"},
					},
					Address: &streetAddress{PostalCode: "60601"},
				}},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "token-123")

	supporter, err := client.GetSupporter(context.Background(), "maya@example.org")
	require.NoError(t, err)
	require.NotNil(t, supporter)
	assert.Equal(t, "sup-1", supporter.SupporterID)
	assert.Equal(t, "Maya", supporter.FirstName)
	assert.Equal(t, "maya@example.org", supporter.Email)
	assert.Equal(t, "60601", supporter.ZipCode)
}

func TestGetSupporterNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(supporterEnvelope{
			Payload: upsertBody{
				Supporters: []supporterRecord{{Result: "NOT_FOUND"}},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "token-123")

	supporter, err := client.GetSupporter(context.Background(), "stranger@example.org")
	require.NoError(t, err, "absence is an outcome, not a fault")
	require.Nil(t, supporter)
}

func TestGetSupporterServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, "token-123")

	_, err := client.GetSupporter(context.Background(), "maya@example.org")
	require.Error(t, err)
}

func TestPutSupporterUpserts(t *testing.T) {
	var received upsertRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, supporterUpsertPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(supporterEnvelope{
			Payload: upsertBody{
				Supporters: []supporterRecord{{Result: resultAdded}},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "token-123")

	user := &salsaauth.User{
		ID:        7,
		FirstName: "Hannah",
		LastName:  "Cushman",
		Email:     "hannah@example.org",
	}

	require.NoError(t, client.PutSupporter(context.Background(), user, "60601"))

	require.Len(t, received.Payload.Supporters, 1)
	record := received.Payload.Supporters[0]
	assert.Equal(t, "Hannah", record.FirstName)
	require.Len(t, record.Contacts, 1)
	assert.Equal(t, contactTypeEmail, record.Contacts[0].Type)
	assert.Equal(t, "hannah@example.org", record.Contacts[0].Value)
	require.NotNil(t, record.Address)
	assert.Equal(t, "60601", record.Address.PostalCode)
}

func TestPutSupporterRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(supporterEnvelope{
			Payload: upsertBody{
				Supporters: []supporterRecord{{Result: "VALIDATION_ERROR"}},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "token-123")

	err := client.PutSupporter(context.Background(), &salsaauth.User{Email: "bad@example.org"}, "")
	require.Error(t, err)
}

func TestPutSupporterNilUser(t *testing.T) {
	client := New("http://localhost:0", "token-123")
	require.Error(t, client.PutSupporter(context.Background(), nil, ""))
}

func TestToSupporterRequiresEmailContact(t *testing.T) {
	record := supporterRecord{
		SupporterID: "sup-2",
		FirstName:   "Nadia",
		Contacts: []contact{
			{Type: "SMS", Value: "+13125882300"},
		},
	}
	require.Nil(t, record.toSupporter())
}
