// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package marketplace

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"dalley/internal/models"
)

func fixture() []models.Template {
	alice := "Alice"
	bob := "bobcat"
	return []models.Template{
		{ID: uuid.New(), Title: "Neon HUD", Category: "HUD", Owner: &models.Profile{Username: &alice}},
		{ID: uuid.New(), Title: "Loot Grid", Category: "Inventory", Owner: &models.Profile{Username: &bob}},
		{ID: uuid.New(), Title: "Item Shop", Category: "Shop", Owner: &models.Profile{Username: &alice}},
		{ID: uuid.New(), Title: "Pause Menu", Category: "Menu"},
		{ID: uuid.New(), Title: "Mini HUD", Category: "HUD", Owner: &models.Profile{Username: &bob}},
	}
}

func titles(ts []models.Template) string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return strings.Join(out, ",")
}

func TestFilter(t *testing.T) {
	all := fixture()

	tests := []struct {
		name string
		c    Criteria
		want string
	}{
		{"no constraints", Criteria{Category: models.CategoryAll}, "Neon HUD,Loot Grid,Item Shop,Pause Menu,Mini HUD"},
		{"empty category is all", Criteria{}, "Neon HUD,Loot Grid,Item Shop,Pause Menu,Mini HUD"},
		{"category only", Criteria{Category: "HUD"}, "Neon HUD,Mini HUD"},
		{"title match case-insensitive", Criteria{Search: "hud"}, "Neon HUD,Mini HUD"},
		{"owner match", Criteria{Search: "ALICE"}, "Neon HUD,Item Shop"},
		{"title or owner", Criteria{Search: "bob"}, "Loot Grid,Mini HUD"},
		{"category and text", Criteria{Category: "HUD", Search: "bob"}, "Mini HUD"},
		{"whitespace search ignored", Criteria{Search: "   "}, "Neon HUD,Loot Grid,Item Shop,Pause Menu,Mini HUD"},
		{"leading space kept", Criteria{Search: " hud"}, "Neon HUD,Mini HUD"},
		{"trailing space kept", Criteria{Search: "hud "}, ""},
		{"inner space", Criteria{Search: "item s"}, "Item Shop"},
		{"no owner no owner match", Criteria{Search: "pause"}, "Pause Menu"},
		{"nothing", Criteria{Category: "Admin Panel"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titles(Filter(all, tt.c)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterIsSubsetAndMonotonic(t *testing.T) {
	all := fixture()
	ids := make(map[uuid.UUID]bool, len(all))
	for _, tmpl := range all {
		ids[tmpl.ID] = true
	}

	for _, cat := range models.FilterCategories() {
		prev := len(all) + 1
		for _, q := range []string{"", "m", "mi", "min", "mini", "mini h", "mini hx"} {
			got := Filter(all, Criteria{Category: cat, Search: q})
			for _, tmpl := range got {
				if !ids[tmpl.ID] {
					t.Fatalf("phantom template %s", tmpl.ID)
				}
			}
			if len(got) > prev {
				t.Errorf("%s/%q: %d results, more than %d before", cat, q, len(got), prev)
			}
			prev = len(got)
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	all := fixture()
	before := titles(all)
	Filter(all, Criteria{Category: "HUD", Search: "neon"})
	if titles(all) != before {
		t.Error("input slice was modified")
	}
}

func TestPolicyTable(t *testing.T) {
	if p := PolicyFor(OpDownload); !p.Optimistic || p.Rollback || p.Surface {
		t.Errorf("download policy = %+v", p)
	}
	for _, op := range []Op{OpUpdate, OpDelete, Op("other")} {
		if p := PolicyFor(op); p.Optimistic || !p.Surface {
			t.Errorf("%s policy = %+v", op, p)
		}
	}
}
