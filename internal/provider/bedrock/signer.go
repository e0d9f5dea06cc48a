package bedrock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// Credentials are the static AWS credentials used for signing.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// SigV4Signer signs requests with AWS Signature Version 4.
type SigV4Signer struct {
	creds  Credentials
	region string
	signer *v4.Signer
	now    func() time.Time
}

// NewSigV4Signer creates a signer for the bedrock service in region.
func NewSigV4Signer(creds Credentials, region string) *SigV4Signer {
	return &SigV4Signer{
		creds:  creds,
		region: region,
		signer: v4.NewSigner(),
		now:    time.Now,
	}
}

// Sign adds the Authorization, X-Amz-Date and (if set) X-Amz-Security-Token headers.
func (s *SigV4Signer) Sign(ctx context.Context, req *http.Request, body []byte) error {
	if s.creds.AccessKeyID == "" || s.creds.SecretAccessKey == "" {
		return fmt.Errorf("sign request: missing AWS credentials")
	}
	sum := sha256.Sum256(body)
	creds := aws.Credentials{
		AccessKeyID:     s.creds.AccessKeyID,
		SecretAccessKey: s.creds.SecretAccessKey,
		SessionToken:    s.creds.SessionToken,
		Source:          "lumen",
	}
	if err := s.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), signingService, s.region, s.now()); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	return nil
}
