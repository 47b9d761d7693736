package help

import (
	"strings"
	"testing"
)

func TestQUICKREFNonEmpty(t *testing.T) {
	if len(QUICKREF) == 0 {
		t.Fatal("QUICKREF is empty")
	}
}

func TestQUICKREFContainsVersion(t *testing.T) {
	if !strings.Contains(QUICKREF, Version) {
		t.Errorf("QUICKREF does not contain version string %s", Version)
	}
}

func TestQUICKREFListsTopics(t *testing.T) {
	for _, topic := range TopicList {
		if !strings.Contains(QUICKREF, topic) {
			t.Errorf("QUICKREF does not mention topic %q", topic)
		}
	}
}

func TestTopicListMatchesTopics(t *testing.T) {
	for _, name := range TopicList {
		if _, ok := Topics[name]; !ok {
			t.Errorf("TopicList entry %q not in Topics map", name)
		}
	}
	if len(Topics) != len(TopicList) {
		t.Errorf("expected %d topics, got %d", len(TopicList), len(Topics))
	}
}

func TestTopicsNonEmpty(t *testing.T) {
	for name, content := range Topics {
		if len(content) == 0 {
			t.Errorf("topic %q has empty content", name)
		}
	}
}

func TestOperatorsTopicListsEveryOperator(t *testing.T) {
	for _, op := range []string{"add", "neg", "not", "gt", "leq", "or", "if", "comment", "print", "seq", "array", "set", "get", "repeat"} {
		if !strings.Contains(Topics["operators"], `["`+op+`"`) {
			t.Errorf("operators topic missing %q", op)
		}
	}
}

func TestMatchTopicExact(t *testing.T) {
	name, content, err := MatchTopic("syntax")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "syntax" {
		t.Errorf("expected name 'syntax', got %q", name)
	}
	if content == "" {
		t.Error("expected non-empty content")
	}
}

func TestMatchTopicPrefix(t *testing.T) {
	name, _, err := MatchTopic("op")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "operators" {
		t.Errorf("expected 'operators', got %q", name)
	}
}

func TestMatchTopicPrefixExamples(t *testing.T) {
	name, _, err := MatchTopic("EX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "examples" {
		t.Errorf("expected 'examples', got %q", name)
	}
}

func TestMatchTopicAmbiguous(t *testing.T) {
	_, _, err := MatchTopic("s")
	if err == nil {
		t.Fatal("expected error for ambiguous prefix")
	}
	if !strings.Contains(err.Error(), "storage") || !strings.Contains(err.Error(), "syntax") {
		t.Errorf("error should list candidates: %v", err)
	}
}

func TestMatchTopicUnknown(t *testing.T) {
	for _, q := range []string{"nonexistent", "", "constructor"} {
		if _, _, err := MatchTopic(q); err == nil {
			t.Errorf("expected error for %q", q)
		}
	}
}

func TestOperatorIndex(t *testing.T) {
	idx := OperatorIndex()
	if !strings.Contains(idx, "Total: 14 operators") {
		t.Errorf("OperatorIndex should report 14 operators, got:\n%s", idx)
	}
	if !strings.Contains(idx, "repeat") || !strings.Contains(idx, "3 arguments") {
		t.Errorf("OperatorIndex missing repeat arity:\n%s", idx)
	}
}

func TestMatchTopicAllExact(t *testing.T) {
	for _, topic := range TopicList {
		name, content, err := MatchTopic(topic)
		if err != nil {
			t.Errorf("MatchTopic(%q) error: %v", topic, err)
			continue
		}
		if name != topic {
			t.Errorf("MatchTopic(%q) returned name %q", topic, name)
		}
		if content == "" {
			t.Errorf("MatchTopic(%q) returned empty content", topic)
		}
	}
}
