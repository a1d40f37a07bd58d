package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/careloop/booking-api/pkg/errors"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleVerifier validates Google ID tokens against the tokeninfo
// endpoint and checks the audience matches our client ID.
type GoogleVerifier struct {
	clientID string
	client   *http.Client
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type googleTokenInfo struct {
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*FederatedIdentity, error) {
	endpoint := googleTokenInfoURL + "?id_token=" + url.QueryEscape(token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, apperrors.Unauthorized("failed to verify token", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Unauthorized("invalid token", nil)
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, apperrors.Unauthorized("invalid token response", err)
	}

	if v.clientID != "" && info.Audience != v.clientID {
		return nil, apperrors.Unauthorized("token audience mismatch", nil)
	}
	if info.Email == "" || info.EmailVerified != "true" {
		return nil, apperrors.Unauthorized("email not verified by provider", nil)
	}

	return &FederatedIdentity{
		Email: info.Email,
		Name:  info.Name,
	}, nil
}
