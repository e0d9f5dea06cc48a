package bedrock

import (
	"context"
	"net/http"

	"github.com/Cyclone1070/lumen/internal/provider/model"
)

// requestSigner authenticates an outgoing request.
type requestSigner interface {
	Sign(ctx context.Context, req *http.Request, body []byte) error
}

// attachmentLoader reads stored image bytes for the wire.
type attachmentLoader interface {
	Load(att model.Attachment) ([]byte, error)
}
