// Package dispatch maps inbound message text to canned bot replies.
package dispatch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// DefaultWelcome is used when no welcome message is configured.
const DefaultWelcome = "Bonjour ! Comment puis-je vous aider ?"

const (
	pongReply   = "🏓 Pong ! Bot actif."
	thanksReply = "😊 De rien ! N'hésitez pas si vous avez besoin d'aide."

	helpText = `🤖 COMMANDES DISPONIBLES:

📌 GÉNÉRALES:
- ping - Test du bot
- aide - Cette aide
- heure - Heure actuelle
- info - Info du chat
- joke - Blague aléatoire

⚙️ UTILITAIRES:
- citation - Citation inspirante
- template [nom] - Utiliser un template`
)

// Jokes is the pool the joke command draws from.
var Jokes = []string{
	"Pourquoi les plongeurs plongent-ils toujours en arrière ? Parce que sinon, ils tombent dans le bateau ! 😂",
	"Que dit un escargot quand il croise une limace ? 'Regarde, un nudiste !' 🐌",
	"Comment appelle-t-on un chat tombé dans un pot de peinture ? Un chat-mallow ! 🎨",
}

// Quotes is the pool the citation command draws from.
var Quotes = []string{
	"La vie est comme une bicyclette, il faut avancer pour ne pas perdre l'équilibre. - Einstein",
	"Le succès, c'est tomber sept fois et se relever huit. - Proverbe japonais",
	"L'avenir appartient à ceux qui croient à la beauté de leurs rêves. - Eleanor Roosevelt",
}

var (
	greetingWords  = []string{"bonjour", "salut", "hello"}
	gratitudeWords = []string{"merci", "thank you"}
)

// Templates resolves named templates. Lookup is case-insensitive.
type Templates interface {
	Template(name string) (content string, ok bool)
	RecordUse(ctx context.Context, name string) error
}

// Settings exposes operator configuration the replies depend on.
type Settings interface {
	WelcomeMessage() string
}

// Chat describes the conversation a command arrived in.
type Chat struct {
	ID           string
	Name         string
	IsGroup      bool
	Participants int
}

// Request is one inbound message to classify.
type Request struct {
	Body string
	Chat Chat
}

// Rule names reported in Reply.Rule.
const (
	RuleKeyword   = "keyword"
	RuleTemplate  = "template"
	RuleGreeting  = "greeting"
	RuleGratitude = "gratitude"
)

// Reply is the dispatcher's answer.
type Reply struct {
	Text string
	Rule string
}

// Dispatcher is stateless apart from its random source, which is guarded
// so concurrent callers are safe.
type Dispatcher struct {
	templates Templates
	settings  Settings
	now       func() time.Time
	loc       *time.Location

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithRand fixes the random source used for jokes and quotes.
func WithRand(r *rand.Rand) Option {
	return func(d *Dispatcher) { d.rnd = r }
}

// WithClock replaces time.Now for the heure command.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithLocation sets the time zone the heure command reports in.
func WithLocation(loc *time.Location) Option {
	return func(d *Dispatcher) { d.loc = loc }
}

// New builds a dispatcher. Either dependency may be nil: templates then
// never match and the default welcome message is used.
func New(templates Templates, settings Settings, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		templates: templates,
		settings:  settings,
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rnd == nil {
		d.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return d
}

// Dispatch classifies req and returns the reply, if any. Rules are tried
// in order: exact keywords, template lookup, greeting and gratitude
// substrings. The first match wins.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Reply, bool) {
	content := strings.ToLower(strings.TrimSpace(req.Body))
	if content == "" {
		return Reply{}, false
	}

	if text, ok := d.keyword(content, req.Chat); ok {
		return Reply{Text: text, Rule: RuleKeyword}, true
	}
	if name, ok := strings.CutPrefix(content, "template "); ok {
		return Reply{Text: d.template(ctx, strings.TrimSpace(name)), Rule: RuleTemplate}, true
	}
	if containsAny(content, greetingWords) {
		return Reply{Text: "👋 " + d.welcome(), Rule: RuleGreeting}, true
	}
	if containsAny(content, gratitudeWords) {
		return Reply{Text: thanksReply, Rule: RuleGratitude}, true
	}
	return Reply{}, false
}

func (d *Dispatcher) keyword(content string, chat Chat) (string, bool) {
	switch content {
	case "ping":
		return pongReply, true
	case "aide", "help":
		return helpText, true
	case "heure":
		return "🕐 " + FormatFrenchTime(d.now().In(d.loc)), true
	case "info":
		return chatInfo(chat), true
	case "joke":
		return d.pick(Jokes), true
	case "citation":
		return "💫 " + d.pick(Quotes), true
	}
	return "", false
}

func (d *Dispatcher) template(ctx context.Context, name string) string {
	if d.templates != nil {
		if content, ok := d.templates.Template(name); ok {
			// A failed counter update still answers with the content.
			_ = d.templates.RecordUse(ctx, name)
			return content
		}
	}
	return `❌ Template "` + name + `" non trouvé.`
}

func (d *Dispatcher) welcome() string {
	if d.settings != nil {
		if msg := strings.TrimSpace(d.settings.WelcomeMessage()); msg != "" {
			return msg
		}
	}
	return DefaultWelcome
}

func (d *Dispatcher) pick(pool []string) string {
	d.mu.Lock()
	i := d.rnd.IntN(len(pool))
	d.mu.Unlock()
	return pool[i]
}

func chatInfo(chat Chat) string {
	name := chat.Name
	if name == "" {
		name = "Chat privé"
	}
	kind := "Privé"
	if chat.IsGroup {
		kind = "Groupe"
	}
	var b strings.Builder
	b.WriteString("ℹ️ INFORMATIONS:\n\n")
	fmt.Fprintf(&b, "📛 Nom: %s\n", name)
	fmt.Fprintf(&b, "🆔 ID: %s\n", chat.ID)
	fmt.Fprintf(&b, "👥 Type: %s\n", kind)
	if chat.IsGroup {
		fmt.Fprintf(&b, "👨‍👩‍👧‍👦 Participants: %d", chat.Participants)
	}
	return b.String()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
