package gemini

// Response carries the decoded model output as data URLs.
type Response struct {
	Images []string
}
