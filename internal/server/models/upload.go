package models

// UploadTicket is a time-boxed write capability for one object-store key.
// Nothing is reserved by issuing a ticket; quota is only charged when the
// upload is confirmed.
type UploadTicket struct {
	UploadURL string
	FileKey   string
	ExpiresIn int64
}

// ViewTicket is a time-boxed read capability for a recording's payload.
type ViewTicket struct {
	ViewURL   string
	ExpiresIn int64
}
