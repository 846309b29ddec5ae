package domain

// Artist owns zero or more items.
type Artist struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	ProfileImageRef string `json:"profile_image_ref,omitempty"`
}
