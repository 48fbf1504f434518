package model

// ToggleFollowRequest is the request body for POST /explore/follow.
type ToggleFollowRequest struct {
	UserID string `json:"userId"`
}

// ToggleFollowResponse is returned by the follow toggle endpoint.
type ToggleFollowResponse struct {
	Success     bool   `json:"success"`
	IsFollowing bool   `json:"isFollowing"`
	Message     string `json:"message"`
}

// FollowStatusResponse is returned by the follow-status endpoints.
type FollowStatusResponse struct {
	IsFollowing bool `json:"isFollowing"`
}
