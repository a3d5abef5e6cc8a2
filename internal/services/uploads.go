package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lllllllleong/pdfnarration/internal/models"
	"github.com/google/uuid"
)

const (
	// DefaultUploadTTL is how long an upload link stays valid.
	DefaultUploadTTL = 5 * time.Minute

	UploadContentType = "application/pdf"
)

// UploadIssuer signs PUT links that let a client upload a PDF into the source
// bucket, where the upload triggers the pipeline.
type UploadIssuer struct {
	signer    UploadSigner
	namespace string
	ttl       time.Duration
	now       func() time.Time
	newName   func() string
}

func NewUploadIssuer(signer UploadSigner, namespace string, ttl time.Duration) *UploadIssuer {
	if ttl <= 0 {
		ttl = DefaultUploadTTL
	}
	return &UploadIssuer{
		signer:    signer,
		namespace: namespace,
		ttl:       ttl,
		now:       time.Now,
		newName:   func() string { return "upload-" + uuid.NewString() + ".pdf" },
	}
}

// Issue signs an upload link for req.FileName, or for a generated
// upload-<uuid>.pdf name when none is given. Only .pdf names are accepted.
func (u *UploadIssuer) Issue(ctx context.Context, req models.UploadLinkRequest) (*models.UploadLinkResponse, error) {
	name := strings.TrimSpace(req.FileName)
	if name == "" {
		name = u.newName()
	}
	if err := validateUploadName(name); err != nil {
		return nil, newError(KindInvalidInput, StageValidate, err)
	}

	issuedAt := u.now().UTC()
	url, err := u.signer.SignUpload(ctx, u.namespace, name, UploadContentType, u.ttl)
	if err != nil {
		return nil, newError(KindLinkIssuanceFailed, StageLink, err)
	}
	expiresAt := issuedAt.Add(u.ttl)
	return &models.UploadLinkResponse{
		URL:         url,
		FileName:    name,
		Namespace:   u.namespace,
		ContentType: UploadContentType,
		ExpiresAt:   &expiresAt,
	}, nil
}

func validateUploadName(name string) error {
	switch {
	case !IsPDFKey(name):
		return fmt.Errorf("file name %q must end in .pdf", name)
	case strings.HasPrefix(name, "/"):
		return fmt.Errorf("file name %q must be relative", name)
	case strings.HasPrefix(name, textArtifactPrefix) || strings.HasPrefix(name, audioPrefix):
		return fmt.Errorf("file name %q is inside a generated output folder", name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return fmt.Errorf("file name %q must not contain ..", name)
		}
	}
	return nil
}
