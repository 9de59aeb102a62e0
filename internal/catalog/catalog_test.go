package catalog

import "testing"

func TestStaticCatalogLookupNormalizesType(t *testing.T) {
	c := NewStatic(Seed())

	forms := []string{"webhook", "n8n-nodes-base.webhook"}
	for _, f := range forms {
		def, ok := c.Lookup(f)
		if !ok {
			t.Fatalf("Lookup(%q): not found", f)
		}
		if def.Type != "webhook" {
			t.Errorf("Lookup(%q).Type = %q, want webhook", f, def.Type)
		}
		if !def.IsWebhookTrigger {
			t.Errorf("Lookup(%q).IsWebhookTrigger = false, want true", f)
		}
	}
}

func TestStaticCatalogUnknownType(t *testing.T) {
	c := NewStatic(Seed())
	if _, ok := c.Lookup("n8n-nodes-base.doesNotExist"); ok {
		t.Error("expected unknown type to miss")
	}
}

func TestStaticCatalogCount(t *testing.T) {
	c := NewStatic(Seed())
	if got := c.Count(); got != len(Seed()) {
		t.Errorf("Count() = %d, want %d", got, len(Seed()))
	}
}

func TestPropertyByName(t *testing.T) {
	c := NewStatic(Seed())
	def, ok := c.Lookup("httpRequest")
	if !ok {
		t.Fatal("httpRequest not found")
	}
	p := def.PropertyByName("url")
	if p == nil {
		t.Fatal("PropertyByName(url) = nil")
	}
	if !p.Required {
		t.Error("url should be required")
	}
	if def.PropertyByName("nonexistent") != nil {
		t.Error("PropertyByName should return nil for missing property")
	}
}

func TestSwitchDisplayOptionsGating(t *testing.T) {
	c := NewStatic(Seed())
	def, ok := c.Lookup("switch")
	if !ok {
		t.Fatal("switch not found")
	}
	rules := def.PropertyByName("rules")
	if rules == nil {
		t.Fatal("rules property missing")
	}
	shown, ok := rules.Display.Show["mode"]
	if !ok || len(shown) != 1 || shown[0] != "rules" {
		t.Errorf("rules.Display.Show[mode] = %v, want [rules]", shown)
	}
}
