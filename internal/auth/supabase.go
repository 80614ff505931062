package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoServiceKey : la suppression de comptes demande la clé service_role.
var ErrNoServiceKey = errors.New("auth: supabase service role key not configured")

// ProviderError porte une réponse d'erreur de Supabase Auth.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("supabase auth: status %d: %s", e.Status, e.Body)
}

// Supabase appelle l'API Auth de Supabase.
type Supabase struct {
	client     *resty.Client
	anonKey    string
	serviceKey string
}

func NewSupabase(baseURL, anonKey, serviceKey string) *Supabase {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")
	return &Supabase{client: client, anonKey: anonKey, serviceKey: serviceKey}
}

type signupResponse struct {
	// Sans confirmation par mail
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	// Avec confirmation par mail
	ID string `json:"id"`
}

// SignUp crée le compte et renvoie l'id attribué par Supabase.
func (s *Supabase) SignUp(ctx context.Context, email, password string) (string, error) {
	var out signupResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("apikey", s.anonKey).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post("/auth/v1/signup")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", &ProviderError{Status: resp.StatusCode(), Body: resp.String()}
	}

	userID := out.User.ID
	if userID == "" {
		userID = out.ID
	}
	if userID == "" {
		return "", errors.New("supabase auth: no user id returned")
	}
	return userID, nil
}

// Token échange des identifiants contre une session. Le corps de la réponse
// est renvoyé tel quel, avec le statut de Supabase.
func (s *Supabase) Token(ctx context.Context, credentials interface{}) (int, []byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("apikey", s.anonKey).
		SetQueryParam("grant_type", "password").
		SetBody(credentials).
		Post("/auth/v1/token")
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), resp.Body(), nil
}

// DeleteUser supprime le compte Supabase. Un compte déjà absent n'est pas
// une erreur.
func (s *Supabase) DeleteUser(ctx context.Context, userID string) error {
	if s.serviceKey == "" {
		return ErrNoServiceKey
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("apikey", s.serviceKey).
		SetAuthToken(s.serviceKey).
		Delete("/auth/v1/admin/users/" + userID)
	if err != nil {
		return err
	}
	if resp.IsError() && resp.StatusCode() != 404 {
		return &ProviderError{Status: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
