package rooms

// CreateRoomRequest contains the fields for creating a new room
type CreateRoomRequest struct {
	Name             string `json:"name"`
	VideoURL         string `json:"video_url"`
	Password         string `json:"password,omitempty"`
	VoiceChatEnabled bool   `json:"voice_chat_enabled"`
}

// JoinRoomRequest carries the optional room password
type JoinRoomRequest struct {
	Password string `json:"password,omitempty"`
}

// UpdatePlaybackRequest is the host's shared playback write
type UpdatePlaybackRequest struct {
	CurrentTime float64 `json:"current_time"`
	IsPlaying   bool    `json:"is_playing"`
}

// ChangeVideoRequest switches the room to a new video
type ChangeVideoRequest struct {
	VideoURL string `json:"video_url"`
}

// AddQueueRequest appends a video to the room queue
type AddQueueRequest struct {
	VideoURL string `json:"video_url"`
}
