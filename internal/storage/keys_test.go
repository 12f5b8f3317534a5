package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAvatarAndDocumentExtensions(t *testing.T) {
	ext, ok := AvatarExtension("image/JPEG")
	assert.True(t, ok)
	assert.Equal(t, ".jpg", ext)

	_, ok = AvatarExtension("application/pdf")
	assert.False(t, ok)

	ext, ok = DocumentExtension("application/pdf; charset=binary")
	assert.True(t, ok)
	assert.Equal(t, ".pdf", ext)
}

func TestKeyLayouts(t *testing.T) {
	assert.Equal(t, "avatars/p1/avatar.png", AvatarKey("p1", ".png"))

	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "certificates/p1/1700000000123-bosiet-card.pdf",
		CertificateKey("p1", "../BOSIET Card.pdf", ".pdf", now))
	assert.Equal(t, "certificates/p1/1700000000123-document.pdf",
		CertificateKey("p1", "???.pdf", ".pdf", now))
}

func TestOwnsKey(t *testing.T) {
	assert.True(t, OwnsKey("p1", "avatars/p1/avatar.png"))
	assert.True(t, OwnsKey("p1", "certificates/p1/1-doc.pdf"))
	assert.False(t, OwnsKey("p1", "avatars/p2/avatar.png"))
	assert.False(t, OwnsKey("p1", "certificates/p1/../p2/x.pdf"))
	assert.False(t, OwnsKey("p1", "other/p1/x"))
	assert.False(t, OwnsKey("", "avatars//avatar.png"))
}
