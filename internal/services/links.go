package services

import (
	"context"
	"time"

	"github.com/Lllllllleong/pdfnarration/internal/models"
)

// DefaultLinkTTL is used when no TTL is given.
const DefaultLinkTTL = time.Hour

// LinkIssuer signs read links for objects that may not exist yet.
type LinkIssuer struct {
	signer URLSigner
	now    func() time.Time
}

func NewLinkIssuer(signer URLSigner) *LinkIssuer {
	return &LinkIssuer{signer: signer, now: time.Now}
}

// Issue signs a link to namespace/key valid for ttl, or DefaultLinkTTL when ttl is not positive.
func (l *LinkIssuer) Issue(ctx context.Context, namespace, key string, ttl time.Duration) (*models.AccessLink, error) {
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	issuedAt := l.now().UTC()
	url, err := l.signer.Sign(ctx, namespace, key, ttl)
	if err != nil {
		return nil, newError(KindLinkIssuanceFailed, StageLink, err)
	}
	return &models.AccessLink{
		Namespace: namespace,
		Key:       key,
		URL:       url,
		TTL:       ttl,
		ExpiresAt: issuedAt.Add(ttl),
	}, nil
}
