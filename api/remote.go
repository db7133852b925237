package api

import "github.com/dfryer1193/journal/blog/domain"

type RemoteStatus struct {
	Adapter string              `json:"adapter"`
	Status  domain.RemoteStatus `json:"status"`
}

// SignInResponse carries the URL to visit when sign-in waits on the browser.
type SignInResponse struct {
	Status  domain.RemoteStatus `json:"status"`
	AuthURL string              `json:"authUrl,omitempty"`
}
