package analyzer

import (
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/mingrammer/commonregex"
)

// entitiesAdvanced runs prose's NER model over text. Overlapping matches
// favor the later (longer-context) hit, mirroring prose's own left-to-right
// tagging order.
func entitiesAdvanced(doc *prose.Document, text string) []Entity {
	var out []Entity
	for _, ent := range doc.Entities() {
		start := strings.Index(text, ent.Text)
		if start < 0 {
			continue
		}
		out = append(out, Entity{
			Text:       ent.Text,
			Label:      ent.Label,
			Start:      start,
			End:        start + len(ent.Text),
			Confidence: 1.0,
		})
	}
	return dedupeEntities(out)
}

var (
	capitalizedRunRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,3})\b`)
	moneyRe          = regexp.MustCompile(`[$€£¥]\s?\d[\d,]*(?:\.\d+)?`)
	percentRe        = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?%`)
)

// entitiesFallback finds candidate entities with commonregex's fixed EMAIL/
// URL/PHONE/DATE patterns plus local currency/percentage/capitalization
// heuristics when the advanced model is unavailable. Capitalized runs
// approximate PERSON/ORG/GPE, which a regex pass cannot tell apart without
// a real NER model.
func entitiesFallback(text string) []Entity {
	var out []Entity

	// Links are collected before emails: the link pattern also matches the
	// domain part of an email address, and dedupeEntities keeps the later
	// of two overlapping spans, so the EMAIL span wins over that URL span.
	for _, match := range commonregex.Links(text) {
		out = append(out, fallbackEntity(text, match, "URL"))
	}
	for _, match := range commonregex.Emails(text) {
		out = append(out, fallbackEntity(text, match, "EMAIL"))
	}
	for _, match := range commonregex.PhonesWithExts(text) {
		out = append(out, fallbackEntity(text, match, "PHONE"))
	}
	for _, match := range commonregex.Dates(text) {
		out = append(out, fallbackEntity(text, match, "DATE"))
	}
	for _, loc := range moneyRe.FindAllStringIndex(text, -1) {
		out = append(out, Entity{Text: text[loc[0]:loc[1]], Label: "MONEY", Start: loc[0], End: loc[1], Confidence: 0.6})
	}
	for _, loc := range percentRe.FindAllStringIndex(text, -1) {
		out = append(out, Entity{Text: text[loc[0]:loc[1]], Label: "PERCENT", Start: loc[0], End: loc[1], Confidence: 0.6})
	}
	for _, loc := range capitalizedRunRe.FindAllStringIndex(text, -1) {
		candidate := text[loc[0]:loc[1]]
		if isSentenceStartArtifact(text, loc[0], candidate) {
			continue
		}
		out = append(out, Entity{
			Text:       candidate,
			Label:      "PERSON_OR_ORG_OR_GPE",
			Start:      loc[0],
			End:        loc[1],
			Confidence: 0.6,
		})
	}
	return dedupeEntities(out)
}

// fallbackEntity locates match's first occurrence in text. commonregex
// returns matched substrings, not offsets, so the span is recovered here.
func fallbackEntity(text, match, label string) Entity {
	start := strings.Index(text, match)
	return Entity{Text: match, Label: label, Start: start, End: start + len(match), Confidence: 0.6}
}

// isSentenceStartArtifact drops a single capitalized word that is really
// just the first word of a sentence, not a proper noun: a lone word at
// position 0 (or right after sentence-ending punctuation) with no further
// capitalized words following it.
func isSentenceStartArtifact(text string, start int, candidate string) bool {
	if strings.Contains(candidate, " ") {
		return false
	}
	if isStopword(strings.ToLower(candidate)) {
		return true
	}
	if start == 0 {
		return true
	}
	prefix := strings.TrimRight(text[:start], " \t")
	if len(prefix) > 0 {
		last := prefix[len(prefix)-1]
		if last == '.' || last == '!' || last == '?' {
			return true
		}
	}
	return false
}

// dedupeEntities resolves overlapping spans by keeping the last
// (rightmost-discovered) entity for any overlapping region, then sorts by
// position of first appearance.
func dedupeEntities(entities []Entity) []Entity {
	if len(entities) == 0 {
		return entities
	}
	resolved := make([]Entity, 0, len(entities))
	for _, e := range entities {
		kept := true
		for i := 0; i < len(resolved); i++ {
			if spansOverlap(resolved[i], e) {
				resolved[i] = e
				kept = false
				break
			}
		}
		if kept {
			resolved = append(resolved, e)
		}
	}
	sortEntitiesByStart(resolved)
	return resolved
}

func spansOverlap(a, b Entity) bool {
	return a.Start < b.End && b.Start < a.End
}

func sortEntitiesByStart(entities []Entity) {
	for i := 1; i < len(entities); i++ {
		for j := i; j > 0 && entities[j-1].Start > entities[j].Start; j-- {
			entities[j-1], entities[j] = entities[j], entities[j-1]
		}
	}
}
