package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CategoryInfo      = "info"
	CategoryAssistant = "virtual_assistant"

	// sessionGap splits clicks on one bed into separate visits.
	sessionGap = 10 * time.Minute
	// topBeds caps the bed ranking.
	topBeds = 5

	unknownSection = "unknown"
)

// PortalEvent is one recorded portal button click. Place is nil when the
// click carries no bed or the bed has since been deleted.
type PortalEvent struct {
	BedID       *uuid.UUID
	Place       *BedPlace
	ButtonCode  string
	ButtonLabel string
	Category    string
	SourcePath  string
	TargetPath  string
	SessionID   string
	ClickedAt   time.Time
}

// BedPlace names where a bed is, for ranking tables.
type BedPlace struct {
	Bed         string `json:"bed"`
	Room        string `json:"room"`
	Service     string `json:"service"`
	Floor       int    `json:"floor"`
	Building    string `json:"building"`
	Institution string `json:"institution"`
}

// SectionVisit counts clicks into one portal section. SessionShare is the
// percentage of all portal sessions that visited the section.
type SectionVisit struct {
	Section      string  `json:"section"`
	Label        string  `json:"label,omitempty"`
	Category     string  `json:"category"`
	Clicks       int     `json:"clicks"`
	SessionShare float64 `json:"session_share"`
}

type BedSessions struct {
	BedID    uuid.UUID `json:"bed_id"`
	Sessions int       `json:"sessions"`
	Place    *BedPlace `json:"place,omitempty"`
}

// PortalActivity summarises patient portal usage over a range.
type PortalActivity struct {
	Sessions int            `json:"sessions"`
	Clicks   int            `json:"clicks"`
	Sections []SectionVisit `json:"sections"`
	TopBeds  []BedSessions  `json:"top_beds"`
}

// portalCategory classifies a click as an information or virtual assistant
// visit. Clicks matching neither return "" and only count toward sessions.
func portalCategory(e PortalEvent) string {
	raw := strings.TrimSpace(e.Category)
	norm := strings.ToLower(raw)
	paths := strings.ToLower(strings.Join([]string{e.SourcePath, e.TargetPath, e.ButtonCode}, " "))

	switch {
	case strings.HasPrefix(norm, "info"):
		return raw
	case strings.Contains(norm, "assistant"), strings.Contains(norm, "asistente"):
		return raw
	case strings.Contains(norm, "chatbot"), strings.Contains(paths, "chat"):
		if raw != "" {
			return raw
		}
		return CategoryAssistant
	case norm == "" && strings.Contains(paths, "info"):
		return CategoryInfo
	}
	return ""
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// sessionKey falls back to ten-minute buckets per bed when the portal sent
// no session id.
func sessionKey(e PortalEvent) string {
	if id := strings.TrimSpace(e.SessionID); id != "" {
		return id
	}
	bed := "unknown"
	if e.BedID != nil {
		bed = e.BedID.String()
	}
	return fmt.Sprintf("%s:%d", bed, e.ClickedAt.Unix()/int64(sessionGap/time.Second))
}

type bedState struct {
	last      time.Time
	sessionID string
	sessions  int
	place     *BedPlace
}

// SummarizePortal aggregates clicks into section visits and the beds with
// the most portal sessions. A bed session ends when the portal session id
// changes or after more than ten quiet minutes.
func SummarizePortal(events []PortalEvent) PortalActivity {
	sorted := make([]PortalEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].BedID, sorted[j].BedID
		switch {
		case a == nil && b != nil:
			return false
		case a != nil && b == nil:
			return true
		case a != nil && *a != *b:
			return a.String() < b.String()
		}
		return sorted[i].ClickedAt.Before(sorted[j].ClickedAt)
	})

	sessions := map[string]struct{}{}
	sections := map[string]*SectionVisit{}
	sectionSessions := map[string]map[string]struct{}{}
	beds := map[uuid.UUID]*bedState{}
	clicks := 0

	for _, e := range sorted {
		key := sessionKey(e)
		sessions[key] = struct{}{}

		category := portalCategory(e)
		if category == "" {
			continue
		}
		clicks++

		name := firstNonBlank(e.TargetPath, e.SourcePath, e.ButtonCode)
		if name == "" {
			name = unknownSection
		}
		sec, ok := sections[name]
		if !ok {
			sec = &SectionVisit{Section: name, Category: category}
			sections[name] = sec
			sectionSessions[name] = map[string]struct{}{}
		}
		sec.Clicks++
		if sec.Label == "" {
			sec.Label = strings.TrimSpace(e.ButtonLabel)
		}
		sectionSessions[name][key] = struct{}{}

		if e.BedID == nil {
			continue
		}
		sid := strings.TrimSpace(e.SessionID)
		st, ok := beds[*e.BedID]
		switch {
		case !ok:
			beds[*e.BedID] = &bedState{last: e.ClickedAt, sessionID: sid, sessions: 1, place: e.Place}
		case (sid != "" && st.sessionID != "" && sid != st.sessionID) || e.ClickedAt.Sub(st.last) > sessionGap:
			st.sessions++
			st.last = e.ClickedAt
			st.sessionID = sid
		default:
			st.last = e.ClickedAt
			if sid != "" {
				st.sessionID = sid
			}
		}
	}

	out := PortalActivity{
		Sessions: len(sessions),
		Clicks:   clicks,
		Sections: make([]SectionVisit, 0, len(sections)),
		TopBeds:  []BedSessions{},
	}
	denominator := float64(len(sessions))
	if denominator == 0 {
		denominator = 1
	}
	for name, sec := range sections {
		sec.SessionShare = float64(len(sectionSessions[name])) / denominator * 100
		out.Sections = append(out.Sections, *sec)
	}
	sort.Slice(out.Sections, func(i, j int) bool {
		if out.Sections[i].Clicks != out.Sections[j].Clicks {
			return out.Sections[i].Clicks > out.Sections[j].Clicks
		}
		return out.Sections[i].Section < out.Sections[j].Section
	})

	for id, st := range beds {
		out.TopBeds = append(out.TopBeds, BedSessions{BedID: id, Sessions: st.sessions, Place: st.place})
	}
	sort.Slice(out.TopBeds, func(i, j int) bool {
		if out.TopBeds[i].Sessions != out.TopBeds[j].Sessions {
			return out.TopBeds[i].Sessions > out.TopBeds[j].Sessions
		}
		return out.TopBeds[i].BedID.String() < out.TopBeds[j].BedID.String()
	})
	if len(out.TopBeds) > topBeds {
		out.TopBeds = out.TopBeds[:topBeds]
	}
	return out
}
