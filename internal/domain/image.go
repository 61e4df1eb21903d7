package domain

// Image is a gallery asset addressable by tags and attached to products and
// events.
type Image struct {
	ID    string
	Title string
	URL   string
	Tags  []string
}
