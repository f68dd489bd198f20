package rules

import (
	"testing"

	"aoss-hq/sentinel/pkg/rules/ast"
)

// TestNewSnapshot tests layer grouping and inactive exclusion.
func TestNewSnapshot(t *testing.T) {
	active := func(id string, layer ast.Layer) *ast.PolicyRule {
		return &ast.PolicyRule{ID: id, Layer: layer, Effect: ast.EffectForbid, Active: true}
	}
	inactive := active("gone", ast.LayerSafety)
	inactive.Active = false
	superseded := active("replaced", ast.LayerSafety)
	superseded.SupersededBy = "replaced@v2"

	snap := NewSnapshot([]*ast.PolicyRule{
		active("a", ast.LayerSafety),
		active("b", ast.LayerSafety),
		active("c", ast.LayerAdversarial),
		inactive,
		superseded,
	})

	if snap.Len() != 3 {
		t.Errorf("Len() = %d, want 3", snap.Len())
	}
	safety := snap.LayerRules(ast.LayerSafety)
	if len(safety) != 2 || safety[0].ID != "a" || safety[1].ID != "b" {
		t.Errorf("SAFETY rules = %+v", safety)
	}
	if len(snap.LayerRules(ast.LayerAdversarial)) != 1 {
		t.Errorf("ADVERSARIAL rules = %d", len(snap.LayerRules(ast.LayerAdversarial)))
	}
	if len(snap.LayerRules(ast.LayerRegulatory)) != 0 {
		t.Error("REGULATORY should be empty")
	}
	if snap.Version() == "" {
		t.Error("snapshot must carry a version")
	}

	// Each snapshot gets a distinct version.
	again := NewSnapshot(nil)
	if again.Version() == snap.Version() {
		t.Error("two snapshots share a version")
	}
}
