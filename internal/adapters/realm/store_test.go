package realm_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nightjarlabs/trailmark/internal/adapters/realm"
	"github.com/nightjarlabs/trailmark/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ledgerWith(identity string, ids []string, lastSeen time.Time) *model.ProgressLedger {
	l := model.NewLedger(identity, lastSeen.Add(-time.Hour))
	l.LastSeenAt = lastSeen
	for _, id := range ids {
		l.Discoveries = append(l.Discoveries, model.DiscoveryRecord{ID: id})
	}
	return l
}

func seed(ctx context.Context, r realm.Realm, l *model.ProgressLedger) {
	raw, _ := json.Marshal(l)
	for _, key := range realm.LedgerKeys(l.Identity) {
		_ = r.Set(ctx, key, raw)
	}
}

func TestStoreReconciliation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given two realms holding diverged ledgers", t, func() {
		a := realm.NewMemoryRealm("a")
		b := realm.NewMemoryRealm("b")
		store := realm.NewStore([]realm.Realm{a, b})

		seed(ctx, a, ledgerWith("tm-x", []string{"one", "two", "three"}, now))
		seed(ctx, b, ledgerWith("tm-x", []string{"one", "two", "three", "four", "five"}, now.Add(-time.Hour)))

		Convey("When the ledger is read", func() {
			got := store.ReadLedger(ctx, "tm-x", now)

			Convey("Then the richer candidate wins regardless of recency", func() {
				So(got.Discoveries, ShouldHaveLength, 5)
			})
		})
	})

	Convey("Given two realms tied on discovery count", t, func() {
		a := realm.NewMemoryRealm("a")
		b := realm.NewMemoryRealm("b")
		store := realm.NewStore([]realm.Realm{a, b})

		seed(ctx, a, ledgerWith("tm-x", []string{"one"}, now.Add(-2*time.Hour)))
		fresher := ledgerWith("tm-x", []string{"one"}, now)
		fresher.VisitCount = 7
		seed(ctx, b, fresher)

		Convey("When the ledger is read", func() {
			got := store.ReadLedger(ctx, "tm-x", now)

			Convey("Then the later lastSeenAt breaks the tie", func() {
				So(got.VisitCount, ShouldEqual, 7)
			})
		})
	})

	Convey("Given a realm that fails on every call", t, func() {
		broken := realm.NewMemoryRealm("broken", realm.WithFailingReads(), realm.WithFailingWrites())
		healthy := realm.NewMemoryRealm("healthy")
		store := realm.NewStore([]realm.Realm{broken, healthy})

		Convey("When a ledger is written", func() {
			written := store.WriteLedger(ctx, ledgerWith("tm-x", []string{"one"}, now))

			Convey("Then the healthy realm still accepts it", func() {
				So(written, ShouldEqual, 1)
			})

			Convey("And the read succeeds using only the healthy realm", func() {
				got := store.ReadLedger(ctx, "tm-x", now)
				So(got.Discoveries, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given no realm holds the ledger", t, func() {
		store := realm.NewStore([]realm.Realm{realm.NewMemoryRealm("empty")})

		Convey("When the ledger is read", func() {
			got := store.ReadLedger(ctx, "tm-absent", now)

			Convey("Then a fresh ledger is synthesized", func() {
				So(got, ShouldNotBeNil)
				So(got.Identity, ShouldEqual, "tm-absent")
				So(got.VisitCount, ShouldEqual, 1)
				So(got.Discoveries, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a realm holding a malformed document", t, func() {
		a := realm.NewMemoryRealm("a")
		b := realm.NewMemoryRealm("b")
		store := realm.NewStore([]realm.Realm{a, b})

		_ = a.Set(ctx, realm.LedgerKeys("tm-x")[0], []byte("{not json"))
		seed(ctx, b, ledgerWith("tm-x", []string{"one"}, now))

		Convey("When the ledger is read", func() {
			got := store.ReadLedger(ctx, "tm-x", now)

			Convey("Then the malformed realm is treated as absent", func() {
				So(got.Discoveries, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given a write fanned out to all realms", t, func() {
		a := realm.NewMemoryRealm("a")
		b := realm.NewMemoryRealm("b")
		store := realm.NewStore([]realm.Realm{a, b})

		written := store.WriteLedger(ctx, ledgerWith("tm-x", []string{"one"}, now))

		Convey("Then every realm holds every redundant key", func() {
			So(written, ShouldEqual, 2)
			for _, r := range []realm.Realm{a, b} {
				for _, key := range realm.LedgerKeys("tm-x") {
					_, err := r.Get(ctx, key)
					So(err, ShouldBeNil)
				}
			}
		})
	})
}

func TestStoreLeaderboard(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with one flaky and one healthy realm", t, func() {
		flaky := realm.NewMemoryRealm("flaky", realm.WithFailingWrites())
		healthy := realm.NewMemoryRealm("healthy")
		store := realm.NewStore([]realm.Realm{flaky, healthy})

		entries := []model.LeaderboardEntry{
			{Identity: "tm-a", DiscoveryCount: 4},
			{Identity: "tm-b", DiscoveryCount: 2},
		}

		Convey("When the projection is written and read back", func() {
			written := store.WriteLeaderboard(ctx, entries)
			got := store.ReadLeaderboard(ctx)

			Convey("Then the healthy realm round-trips it", func() {
				So(written, ShouldEqual, 1)
				So(got, ShouldHaveLength, 2)
				So(got[0].Identity, ShouldEqual, "tm-a")
			})
		})
	})
}

func TestLedgerKeys(t *testing.T) {
	Convey("Given an identity", t, func() {
		keys := realm.LedgerKeys("tm-deadbeef-2026-03")

		Convey("Then the derived keys are redundant, distinct and stable", func() {
			So(keys, ShouldHaveLength, 3)
			seen := map[string]bool{}
			for _, k := range keys {
				So(seen[k], ShouldBeFalse)
				seen[k] = true
			}
			So(realm.LedgerKeys("tm-deadbeef-2026-03"), ShouldResemble, keys)
		})
	})
}
