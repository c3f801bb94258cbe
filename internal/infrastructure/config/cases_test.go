package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCases_MissingFile(t *testing.T) {
	cfg, err := LoadCases(t.TempDir())
	require.NoError(t, err)

	assert.NotNil(t, cfg.Aliases)
	assert.Empty(t, cfg.Aliases)
	assert.Zero(t, cfg.Current)
}

func TestCasesConfig_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := &CasesConfig{}
	cfg.Add("yamada", CaseAlias{CaseID: 12, Description: "山田家"})
	cfg.Current = 12
	require.NoError(t, cfg.Save(dir))

	loaded, err := LoadCases(dir)
	require.NoError(t, err)

	assert.Equal(t, int64(12), loaded.Current)
	assert.Equal(t, CaseAlias{CaseID: 12, Description: "山田家"}, loaded.Aliases["yamada"])
}

func TestCasesConfig_Resolve(t *testing.T) {
	cfg := &CasesConfig{}
	cfg.Add("yamada", CaseAlias{CaseID: 12})

	tests := []struct {
		name    string
		current int64
		ref     string
		want    int64
		errMsg  string
	}{
		{name: "numeric id", ref: "7", want: 7},
		{name: "alias", ref: "yamada", want: 12},
		{name: "current case", current: 3, ref: "", want: 3},
		{name: "no current case", ref: "", errMsg: "no case selected"},
		{name: "unknown alias", ref: "tanaka", errMsg: "available: yamada"},
		{name: "non-positive id", ref: "0", errMsg: "invalid case id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.Current = tt.current
			got, err := cfg.Resolve(tt.ref)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCasesConfig_Remove(t *testing.T) {
	cfg := &CasesConfig{Current: 12}
	cfg.Add("yamada", CaseAlias{CaseID: 12})
	cfg.Add("y", CaseAlias{CaseID: 12})
	cfg.Add("tanaka", CaseAlias{CaseID: 20})

	cfg.Remove("yamada")
	assert.Equal(t, int64(12), cfg.Current, "another alias still points at the current case")

	cfg.Remove("y")
	assert.Zero(t, cfg.Current)
	assert.Equal(t, []string{"tanaka"}, cfg.Names())

	cfg.Remove("missing")
	assert.Len(t, cfg.Aliases, 1)
}
