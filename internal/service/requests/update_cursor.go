package requests

type UpdateCursorAttributes struct {
	Seq uint64 `json:"seq"`
}

type UpdateCursor struct {
	Key
	Attributes UpdateCursorAttributes `json:"attributes"`
}

type UpdateCursorRequest struct {
	Data UpdateCursor `json:"data"`
}

// NewUpdateCursor reports the next sequence number to publish for run.
func NewUpdateCursor(run string, seq uint64) UpdateCursorRequest {
	return UpdateCursorRequest{
		Data: UpdateCursor{
			Key:        Key{ID: run, Type: CURSOR},
			Attributes: UpdateCursorAttributes{Seq: seq},
		},
	}
}
