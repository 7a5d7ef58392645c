package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type minioCfg struct {
	endpoint string
}

func (c minioCfg) GetMinIOEndpoint() string          { return c.endpoint }
func (c minioCfg) GetMinIOAccessKey() string         { return "access" }
func (c minioCfg) GetMinIOSecretKey() string         { return "secret" }
func (c minioCfg) GetMinIOUseSSL() bool              { return false }
func (c minioCfg) GetMinIOBucketExports() string     { return "exports" }
func (c minioCfg) GetMinIOPresignTTL() time.Duration { return 0 }
func (c minioCfg) IsMinIOEnabled() bool              { return c.endpoint != "" }

func TestNewMinIOServiceRequiresEndpoint(t *testing.T) {
	_, err := NewMinIOService(minioCfg{})
	assert.Error(t, err)
}

func TestNewMinIOServiceDefaultsTTL(t *testing.T) {
	svc, err := NewMinIOService(minioCfg{endpoint: "localhost:9000"})
	require.NoError(t, err)
	assert.Equal(t, DefaultPresignTTL, svc.presignTTL)
	assert.Equal(t, "exports", svc.bucket)
}

func TestUniqueKeyKeepsFolderAndExtension(t *testing.T) {
	key := uniqueKey("/bda-analysis/", "report.xlsx")
	assert.True(t, strings.HasPrefix(key, "bda-analysis/report_"), key)
	assert.True(t, strings.HasSuffix(key, ".xlsx"), key)
	assert.NotEqual(t, key, uniqueKey("bda-analysis", "report.xlsx"))
}
