// Package i18n holds the fr/en message catalogue.
package i18n

import "strings"

// Default is the language used when nothing better is known.
const Default = "fr"

// Supported lists the catalogue languages.
var Supported = []string{"fr", "en"}

var messages = map[string]map[string]string{
	"fr": {
		"required":          "Requis",
		"invalid_email":     "Adresse e-mail invalide",
		"app.name":          "Portail scolaire",
		"nav.home":          "Accueil",
		"nav.dashboard":     "Tableau de bord",
		"nav.approvals":     "Validations",
		"nav.login":         "Connexion",
		"nav.signup":        "Inscription",
		"nav.logout":        "Déconnexion",
		"nav.logout_all":    "Déconnecter tous les appareils",
		"theme.light":       "Clair",
		"theme.dark":        "Sombre",
		"theme.system":      "Système",
		"landing.title":     "Bienvenue sur le portail scolaire",
		"landing.lead":      "Élèves, enseignants, classes, présences et frais au même endroit.",
		"login.title":       "Connexion",
		"login.submit":      "Se connecter",
		"login.failed":      "E-mail ou mot de passe incorrect",
		"signup.title":      "Créer un compte",
		"signup.submit":     "S'inscrire",
		"signup.taken":      "Cette adresse e-mail est déjà utilisée",
		"signup.pending":    "Votre compte doit être validé par un administrateur.",
		"field.email":       "E-mail",
		"field.password":    "Mot de passe",
		"field.full_name":   "Nom complet",
		"field.role":        "Rôle",
		"loading.title":     "Chargement de votre session…",
		"loading.lead":      "Cette page se met à jour automatiquement.",
		"pending.title":     "Compte en attente de validation",
		"pending.lead":      "Un administrateur doit valider votre compte avant l'accès à cet espace.",
		"pending.rejected":  "Votre demande a été refusée. Contactez l'établissement.",
		"dashboard.title":   "Tableau de bord",
		"dashboard.generic": "Votre rôle n'a pas d'espace dédié. Contactez un administrateur.",
		"dashboard.tables":  "Tables",
		"dashboard.notices": "Annonces",
		"approvals.title":   "Comptes à valider",
		"approvals.empty":   "Aucun compte en attente.",
		"approvals.approve": "Valider",
		"approvals.reject":  "Refuser",
		"approvals.done":    "Décision enregistrée",
		"resources.empty":   "Aucune ligne.",
		"resources.search":  "Rechercher",
		"resources.prev":    "Précédent",
		"resources.next":    "Suivant",
		"error.forbidden":   "Accès refusé",
		"error.not_found":   "Introuvable",
		"error.internal":    "Erreur interne",
		"role.super_admin":  "Super administrateur",
		"role.admin":        "Administrateur",
		"role.teacher":      "Enseignant",
		"role.student":      "Élève",
		"role.parent":       "Parent",
		"role.unknown":      "Inconnu",
		"table.students":    "Élèves",
		"table.teachers":    "Enseignants",
		"table.classes":     "Classes",
		"table.attendance":  "Présences",
		"table.fees":        "Frais",
		"table.notices":     "Annonces",
		"table.timetable":   "Emploi du temps",
		"table.enquiries":   "Demandes",
		"table.visitors":    "Visiteurs",
		"table.salaries":    "Salaires",
	},
	"en": {
		"required":          "Required",
		"invalid_email":     "Invalid email address",
		"app.name":          "School portal",
		"nav.home":          "Home",
		"nav.dashboard":     "Dashboard",
		"nav.approvals":     "Approvals",
		"nav.login":         "Sign in",
		"nav.signup":        "Sign up",
		"nav.logout":        "Sign out",
		"nav.logout_all":    "Sign out everywhere",
		"theme.light":       "Light",
		"theme.dark":        "Dark",
		"theme.system":      "System",
		"landing.title":     "Welcome to the school portal",
		"landing.lead":      "Students, teachers, classes, attendance and fees in one place.",
		"login.title":       "Sign in",
		"login.submit":      "Sign in",
		"login.failed":      "Wrong email or password",
		"signup.title":      "Create an account",
		"signup.submit":     "Sign up",
		"signup.taken":      "This email address is already in use",
		"signup.pending":    "An administrator must approve your account.",
		"field.email":       "Email",
		"field.password":    "Password",
		"field.full_name":   "Full name",
		"field.role":        "Role",
		"loading.title":     "Loading your session…",
		"loading.lead":      "This page updates on its own.",
		"pending.title":     "Account awaiting approval",
		"pending.lead":      "An administrator must approve your account before you can use this area.",
		"pending.rejected":  "Your request was declined. Please contact the school.",
		"dashboard.title":   "Dashboard",
		"dashboard.generic": "Your role has no dedicated area. Please contact an administrator.",
		"dashboard.tables":  "Tables",
		"dashboard.notices": "Notices",
		"approvals.title":   "Accounts to approve",
		"approvals.empty":   "No pending accounts.",
		"approvals.approve": "Approve",
		"approvals.reject":  "Reject",
		"approvals.done":    "Decision saved",
		"resources.empty":   "No rows.",
		"resources.search":  "Search",
		"resources.prev":    "Previous",
		"resources.next":    "Next",
		"error.forbidden":   "Access denied",
		"error.not_found":   "Not found",
		"error.internal":    "Internal error",
		"role.super_admin":  "Super admin",
		"role.admin":        "Admin",
		"role.teacher":      "Teacher",
		"role.student":      "Student",
		"role.parent":       "Parent",
		"role.unknown":      "Unknown",
		"table.students":    "Students",
		"table.teachers":    "Teachers",
		"table.classes":     "Classes",
		"table.attendance":  "Attendance",
		"table.fees":        "Fees",
		"table.notices":     "Notices",
		"table.timetable":   "Timetable",
		"table.enquiries":   "Enquiries",
		"table.visitors":    "Visitors",
		"table.salaries":    "Salaries",
	},
}

// T translates code into lang. Unknown languages use French; unknown codes
// are returned unchanged.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[Default][code]; ok {
		return s
	}
	return code
}

// Normalize returns lang when it is supported and "" otherwise.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := messages[lang]; ok {
		return lang
	}
	return ""
}

// DetectLanguage picks the first supported language of an Accept-Language
// header, in the order the client listed them. It defaults to French.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(tag, "-")
		if lang := Normalize(base); lang != "" {
			return lang
		}
	}
	return Default
}
