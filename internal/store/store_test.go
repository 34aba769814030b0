package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(nil, filepath.Join(t.TempDir(), "data.json"))
}

func TestFileStore_MissingFileIsEmptyDataset(t *testing.T) {
	s := newTestStore(t)

	ds, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	ds := Dataset{
		"user1": &UserData{
			Coins: []*TrackedCoin{
				{
					ContractAddress: "CA1",
					Symbol:          "TKN",
					StartMarketCap:  100_000,
					ATHMarketCap:    150_000,
					LowMarketCap:    80_000,
					History: []Observation{
						{MarketCap: 100_000, Volume24h: 5_000, Liquidity: 30_000, Timestamp: now},
					},
					Alerts:    AlertConfig{Multiple: fptr(2), Reclaim: true},
					Triggered: map[string]bool{"pct": true},
					Combos: ComboConfig{
						Triple: &TripleCombo{MCTarget: 1_000_000, PctTarget: 50, MinVolume: 10_000},
					},
				},
			},
			Lists: map[string]*WatchList{
				"ai": {
					Name:       "ai",
					Coins:      []string{"CA1"},
					MetaAlerts: MetaAlertConfig{TotalMC: fptr(2_000_000)},
				},
			},
			Profile: UserProfile{Mode: ModeConservative, AlertMode: AlertModeSilent},
		},
	}

	require.NoError(t, s.Save(ds))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Contains(t, loaded, "user1")

	coin := loaded["user1"].Coin("CA1")
	require.NotNil(t, coin)
	assert.Equal(t, 150_000.0, coin.ATHMarketCap)
	assert.True(t, coin.IsTriggered("pct"))
	assert.False(t, coin.IsTriggered("mc"))
	require.NotNil(t, coin.Alerts.Multiple)
	assert.Equal(t, 2.0, *coin.Alerts.Multiple)
	require.NotNil(t, coin.Combos.Triple)
	assert.Equal(t, 50.0, coin.Combos.Triple.PctTarget)

	assert.Equal(t, ModeConservative, loaded["user1"].Profile.Mode)
	assert.True(t, loaded["user1"].Profile.Silent())
	require.Contains(t, loaded["user1"].Lists, "ai")
}

func TestFileStore_LegacyBareArrayShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	legacy := `{
		"user1": [
			{"ca": "CA1", "symbol": "OLD", "start_mc": 50000, "ath_mc": 60000, "low_mc": 40000, "alerts": {"mc": 30000}}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s := NewFileStore(nil, path)
	ds, err := s.Load()
	require.NoError(t, err)

	user := ds["user1"]
	require.NotNil(t, user)
	require.Len(t, user.Coins, 1)
	assert.Equal(t, "CA1", user.Coins[0].ContractAddress)
	require.NotNil(t, user.Coins[0].Alerts.MarketCapTarget)
	assert.Equal(t, 30_000.0, *user.Coins[0].Alerts.MarketCapTarget)

	// Legacy users get the default profile
	assert.Equal(t, ModeAggressive, user.Profile.Mode)
}

func TestFileStore_NormalizeRepairsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	raw := `{
		"user1": null,
		"user2": {"coins": [], "profile": {"mode": ""}, "lists": {"l": {"name": "l", "coins": null}}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	s := NewFileStore(nil, path)
	ds, err := s.Load()
	require.NoError(t, err)

	require.NotNil(t, ds["user1"])
	assert.Equal(t, ModeAggressive, ds["user1"].Profile.Mode)
	assert.Equal(t, ModeAggressive, ds["user2"].Profile.Mode)
	assert.NotNil(t, ds["user2"].Lists["l"].Coins)
}

func TestFileStore_SaveReplacesAtomically(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save(Dataset{"a": &UserData{}}))
	require.NoError(t, s.Save(Dataset{"b": &UserData{}}))

	ds, err := s.Load()
	require.NoError(t, err)
	assert.NotContains(t, ds, "a")
	assert.Contains(t, ds, "b")

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDataset_UserIDsDeterministic(t *testing.T) {
	ds := Dataset{"charlie": nil, "alice": nil, "bob": nil}
	assert.Equal(t, []string{"alice", "bob", "charlie"}, ds.UserIDs())
}

func TestTrackedCoin_Latches(t *testing.T) {
	coin := &TrackedCoin{ContractAddress: "CA1"}

	assert.False(t, coin.IsTriggered("x"))
	coin.MarkTriggered("x")
	assert.True(t, coin.IsTriggered("x"))

	coin.ResetTriggered("x")
	assert.False(t, coin.IsTriggered("x"))

	assert.False(t, coin.IsComboTriggered("triple"))
	coin.MarkComboTriggered("triple")
	assert.True(t, coin.IsComboTriggered("triple"))
}

func TestUserProfile_Defaults(t *testing.T) {
	assert.Equal(t, ModeAggressive, UserProfile{}.QualityMode())
	assert.Equal(t, ModeAggressive, UserProfile{Mode: "bogus"}.QualityMode())
	assert.Equal(t, ModeSniper, UserProfile{Mode: ModeSniper}.QualityMode())
	assert.False(t, UserProfile{}.Silent())
}

func fptr(v float64) *float64 {
	return &v
}
