package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-tagtree/pkg/models"
)

// LoadTagInfo reads the taginfo.yaml sidecar mapping tag paths to
// display metadata. A missing sidecar yields an empty map; an
// unparseable one keeps the last successfully loaded metadata so a
// half-saved edit never blanks out pins and aliases mid-session.
func (v *Vault) LoadTagInfo() map[string]models.TagMeta {
	data, err := os.ReadFile(v.tagInfoPath())
	if errors.Is(err, fs.ErrNotExist) {
		return v.rememberMeta(map[string]models.TagMeta{})
	}
	if err != nil {
		v.log.Warnf("read %s: %v", TagInfoFile, err)
		return v.lastKnownMeta()
	}

	meta := make(map[string]models.TagMeta)
	if err := yaml.Unmarshal(data, &meta); err != nil {
		v.log.Warnf("parse %s, keeping previous metadata: %v", TagInfoFile, err)
		return v.lastKnownMeta()
	}
	return v.rememberMeta(meta)
}

// SaveTagInfo writes the sidecar back out.
func (v *Vault) SaveTagInfo(meta map[string]models.TagMeta) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal tag metadata: %w", err)
	}
	if err := os.WriteFile(v.tagInfoPath(), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", TagInfoFile, err)
	}
	v.rememberMeta(meta)
	return nil
}

func (v *Vault) tagInfoPath() string {
	return filepath.Join(v.root, TagInfoFile)
}

func (v *Vault) rememberMeta(meta map[string]models.TagMeta) map[string]models.TagMeta {
	copied := make(map[string]models.TagMeta, len(meta))
	for k, m := range meta {
		copied[k] = m
	}
	v.mu.Lock()
	v.lastMeta = copied
	v.mu.Unlock()
	return meta
}

func (v *Vault) lastKnownMeta() map[string]models.TagMeta {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.lastMeta == nil {
		v.lastMeta = map[string]models.TagMeta{}
	}
	out := make(map[string]models.TagMeta, len(v.lastMeta))
	for k, m := range v.lastMeta {
		out[k] = m
	}
	return out
}
