package photos

import "time"

// Credentials holds the OAuth material for one Google Photos account.
// It is a plain value: copies never alias the client's internal state.
type Credentials struct {
	AccessToken   string `json:"accessToken"`
	TokenEndpoint string `json:"tokenEndpoint"`
	RefreshToken  string `json:"refreshToken"`
	ClientID      string `json:"clientId"`
	ClientSecret  string `json:"clientSecret"`
}

// MediaItem represents a photo or video returned by the Library API
type MediaItem struct {
	ID              string           `json:"id"`
	Description     string           `json:"description,omitempty"`
	ProductURL      string           `json:"productUrl,omitempty"`
	BaseURL         string           `json:"baseUrl,omitempty"`
	MimeType        string           `json:"mimeType,omitempty"`
	Filename        string           `json:"filename,omitempty"`
	MediaMetadata   *MediaMetadata   `json:"mediaMetadata,omitempty"`
	ContributorInfo *ContributorInfo `json:"contributorInfo,omitempty"`
}

// MediaMetadata carries the dimensions and capture details of a media item.
// Width and height are int64 values the API encodes as JSON strings.
type MediaMetadata struct {
	CreationTime *time.Time `json:"creationTime,omitempty"`
	Width        string     `json:"width,omitempty"`
	Height       string     `json:"height,omitempty"`
	Photo        *Photo     `json:"photo,omitempty"`
	Video        *Video     `json:"video,omitempty"`
}

type Photo struct {
	CameraMake      string  `json:"cameraMake,omitempty"`
	CameraModel     string  `json:"cameraModel,omitempty"`
	FocalLength     float64 `json:"focalLength,omitempty"`
	ApertureFNumber float64 `json:"apertureFNumber,omitempty"`
	IsoEquivalent   int     `json:"isoEquivalent,omitempty"`
	ExposureTime    string  `json:"exposureTime,omitempty"`
}

type Video struct {
	CameraMake  string  `json:"cameraMake,omitempty"`
	CameraModel string  `json:"cameraModel,omitempty"`
	Fps         float64 `json:"fps,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// ContributorInfo is only present for items in shared albums
type ContributorInfo struct {
	ProfilePictureBaseURL string `json:"profilePictureBaseUrl,omitempty"`
	DisplayName           string `json:"displayName,omitempty"`
}
