package i18n

import (
	"github.com/geocoder89/tenderhub/internal/domain/bid"
	"github.com/geocoder89/tenderhub/internal/domain/document"
	"github.com/geocoder89/tenderhub/internal/domain/project"
	"github.com/geocoder89/tenderhub/internal/domain/user"
)

// Tones are the badge colours the dashboards use for each status.
const (
	ToneGreen  = "green"
	ToneGray   = "gray"
	ToneYellow = "yellow"
	ToneBlue   = "blue"
	ToneRed    = "red"
)

var statusTones = map[string]string{
	// project statuses
	project.StatusOpen:        ToneGreen,
	project.StatusClosed:      ToneGray,
	project.StatusUnderReview: ToneYellow,
	project.StatusAwarded:     ToneBlue,
	// bid statuses
	bid.StatusSubmitted: ToneBlue,
	bid.StatusAccepted:  ToneGreen,
	bid.StatusRejected:  ToneRed,
}

// Tone returns the badge colour for a project or bid status, gray when unknown.
func Tone(status string) string {
	if t, ok := statusTones[status]; ok {
		return t
	}
	return ToneGray
}

type Label struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Tone  string `json:"tone,omitempty"`
}

type LabelSet struct {
	Lang            string  `json:"lang"`
	Dir             string  `json:"dir"`
	ProjectStatuses []Label `json:"project_statuses"`
	BidStatuses     []Label `json:"bid_statuses"`
	ProjectTypes    []Label `json:"project_types"`
	DocumentTypes   []Label `json:"document_types"`
	Roles           []Label `json:"roles"`
}

func labels(lang, group string, values []string, withTone bool) []Label {
	out := make([]Label, 0, len(values))
	for _, v := range values {
		l := Label{Value: v, Label: T(lang, group+"."+v)}
		if withTone {
			l.Tone = Tone(v)
		}
		out = append(out, l)
	}
	return out
}

func Labels(lang string) LabelSet {
	return LabelSet{
		Lang:            lang,
		Dir:             Dir(lang),
		ProjectStatuses: labels(lang, "project_status", project.Statuses, true),
		BidStatuses:     labels(lang, "bid_status", bid.Statuses, true),
		ProjectTypes:    labels(lang, "project_type", project.Types, false),
		DocumentTypes:   labels(lang, "document_type", document.Types, false),
		Roles:           labels(lang, "role", []string{user.RoleAdmin, user.RoleCandidate}, false),
	}
}

var labelEntries = map[string]map[string]string{
	"project_status.open":         {"ar": "مفتوح", "fr": "Ouvert", "en": "Open"},
	"project_status.under_review": {"ar": "قيد المراجعة", "fr": "En révision", "en": "Under review"},
	"project_status.awarded":      {"ar": "تم الترسية", "fr": "Attribué", "en": "Awarded"},
	"project_status.closed":       {"ar": "مغلق", "fr": "Fermé", "en": "Closed"},

	"bid_status.submitted":    {"ar": "مقدم", "fr": "Soumis", "en": "Submitted"},
	"bid_status.under_review": {"ar": "قيد المراجعة", "fr": "En révision", "en": "Under review"},
	"bid_status.accepted":     {"ar": "مقبول", "fr": "Accepté", "en": "Accepted"},
	"bid_status.rejected":     {"ar": "مرفوض", "fr": "Rejeté", "en": "Rejected"},

	"project_type.repair":       {"ar": "إصلاح", "fr": "Réparation", "en": "Repair"},
	"project_type.construction": {"ar": "بناء", "fr": "Construction", "en": "Construction"},
	"project_type.maintenance":  {"ar": "صيانة", "fr": "Maintenance", "en": "Maintenance"},

	"document_type.commerce_register":  {"ar": "السجل التجاري", "fr": "Registre de Commerce", "en": "Commercial register"},
	"document_type.certificate":        {"ar": "الشهادة", "fr": "Certificat", "en": "Certificate"},
	"document_type.insurance":          {"ar": "التأمين", "fr": "Assurance", "en": "Insurance"},
	"document_type.tax_clearance":      {"ar": "براءة ذمة ضريبية", "fr": "Quitus Fiscal", "en": "Tax clearance"},
	"document_type.other":              {"ar": "أخرى", "fr": "Autre", "en": "Other"},
	"document_type.technical_proposal": {"ar": "العرض التقني", "fr": "Offre technique", "en": "Technical proposal"},
	"document_type.financial_proposal": {"ar": "العرض المالي", "fr": "Offre financière", "en": "Financial proposal"},

	"role.admin":     {"ar": "مدير", "fr": "Administrateur", "en": "Administrator"},
	"role.candidate": {"ar": "مترشح", "fr": "Candidat", "en": "Candidate"},

	"app.name":           {"ar": "تطبيقة تسيير الصفقات العمومية", "fr": "Application de Gestion des Marchés Publics", "en": "Public Tenders Management System"},
	"app.short_name":     {"ar": "الصفقات العمومية", "fr": "Marchés Publics", "en": "Public Tenders"},
	"app.description":    {"ar": "نظام إدارة المناقصات والمشاريع العمومية", "fr": "Système de gestion des appels d'offres et projets publics", "en": "Public tender and project management system"},
	"app.tagline":        {"ar": "إدارة فعالة وشفافة للصفقات العمومية", "fr": "Gestion efficace et transparente des marchés publics", "en": "Efficient and transparent public tender management"},
	"app.administration": {"ar": "المحكمة - قسم الهندسة", "fr": "Tribunal - Service d'Ingénierie", "en": "Court - Engineering Department"},
}

type AppInfo struct {
	Lang            string   `json:"lang"`
	Dir             string   `json:"dir"`
	Name            string   `json:"name"`
	ShortName       string   `json:"short_name"`
	Description     string   `json:"description"`
	Tagline         string   `json:"tagline"`
	Administration  string   `json:"administration"`
	Languages       []string `json:"languages"`
	DefaultLanguage string   `json:"default_language"`
	RTLLanguages    []string `json:"rtl_languages"`
}

func App(lang, defaultLang string) AppInfo {
	return AppInfo{
		Lang:            lang,
		Dir:             Dir(lang),
		Name:            T(lang, "app.name"),
		ShortName:       T(lang, "app.short_name"),
		Description:     T(lang, "app.description"),
		Tagline:         T(lang, "app.tagline"),
		Administration:  T(lang, "app.administration"),
		Languages:       []string{Arabic, French, English},
		DefaultLanguage: defaultLang,
		RTLLanguages:    []string{Arabic},
	}
}
