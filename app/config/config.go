package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"dischat/app/chat"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

type Config struct {
	Log        Log        `yaml:"log"`
	Discord    Discord    `yaml:"discord"`
	Generation Generation `yaml:"generation"`
	Budget     Budget     `yaml:"budget"`
	Responder  Responder  `yaml:"responder"`
	Humanize   Humanize   `yaml:"humanize"`
	Patterns   Patterns   `yaml:"patterns"`
	Collector  Collector  `yaml:"collector"`
	HTTP       HTTP       `yaml:"http"`
}

type Discord struct {
	// Bot token, without the "Bot " prefix
	Token string `yaml:"token" env:"BOT_TOKEN" example:"MTA5ODc2NTQzMjEwOTg3NjU0.GaBcDe.abcdefghijklmnopqrstuvwxyz0123456789" validate:"required"`
	// ID of the channel the bot watches and replies in
	ChannelID string `yaml:"channel_id" env:"CHANNEL_ID" example:"1098765432109876543" validate:"required,numeric"`
	// Number of messages fetched on each tick
	FetchLimit int `yaml:"fetch_limit" env:"FETCH_LIMIT" example:"20" validate:"min=1,max=100"`
	// Max body length accepted by the platform
	MaxMessageLength int `yaml:"max_message_length" example:"2000" validate:"min=16"`
}

type Generation struct {
	// Which generation backend to use
	Provider string `yaml:"provider" env:"GENERATION_PROVIDER" example:"gemini" validate:"oneof=gemini openai"`
	Gemini   Gemini `yaml:"gemini"`
	OpenAI   OpenAI `yaml:"openai"`
	// Sampling parameters
	Temperature float32 `yaml:"temperature" example:"0.9" validate:"min=0,max=2"`
	MaxTokens   int32   `yaml:"max_tokens" example:"60" validate:"min=1"`
	TopP        float32 `yaml:"top_p" example:"0.95" validate:"min=0,max=1"`
	TopK        int32   `yaml:"top_k" example:"40" validate:"min=0"`
	// Retries after an overloaded answer, and the fixed delay between them
	OverloadRetries *int          `yaml:"overload_retries" example:"3" validate:"omitempty,min=0,max=10"`
	OverloadDelay   time.Duration `yaml:"overload_delay" example:"2s"`
	// Timeout of a single generation call
	Timeout time.Duration `yaml:"timeout" example:"30s"`
	// Persona instructions placed at the top of every prompt
	Persona string `yaml:"persona" example:"You are a regular in a casual Discord chat."`
}

type Gemini struct {
	// Gemini API key
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY" example:"AIzaSyA-abcdefghijklmnopqrstuvwxyz0123" validate:"required_if=Enabled true"`
	// Gemini model name
	Model string `yaml:"model" env:"GEMINI_MODEL" example:"gemini-2.0-flash-lite"`
	// Set during Load from Generation.Provider
	Enabled bool `yaml:"-"`
}

type OpenAI struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" env:"OPENAI_BASE_URL" example:"https://openrouter.ai/api/v1"`
	// OpenAI token
	Token string `yaml:"token" env:"OPENAI_API_KEY" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required_if=Enabled true"`
	// OpenAI model
	Model string `yaml:"model" env:"OPENAI_MODEL" example:"deepseek/deepseek-chat-v3-0324:free"`
	// Set during Load from Generation.Provider
	Enabled bool `yaml:"-"`
}

type Budget struct {
	Generation Quota `yaml:"generation"`
	Polling    Quota `yaml:"polling"`
}

type Quota struct {
	// Calls allowed per window
	Limit int `yaml:"limit" example:"1500" validate:"min=1"`
	// Window length
	Window time.Duration `yaml:"window" example:"24h"`
	// Minimal spacing between calls
	Interval time.Duration `yaml:"interval" example:"4s"`
	// Multiplier applied to the interval on a rate-limit answer
	BackoffFactor float64 `yaml:"backoff_factor" example:"1.5" validate:"min=1"`
	// Ceiling for the backed-off interval
	MaxInterval time.Duration `yaml:"max_interval" example:"2m"`
	// Whether a rate-limit answer disables the quota for the rest of the run
	Sticky *bool `yaml:"sticky" example:"true"`
}

type Responder struct {
	// Timer interval between ticks
	TickInterval time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL" example:"20s"`
	// Upper bound for a single tick
	TickTimeout time.Duration `yaml:"tick_timeout" example:"2m"`
	// Minimal spacing between two dispatched replies
	MinSpacing time.Duration `yaml:"min_spacing" env:"MIN_SPACING" example:"45s"`
	// Chance to answer an ambient (not directed) message
	ResponseChance *float64 `yaml:"response_chance" env:"RESPONSE_CHANCE" example:"0.8" validate:"omitempty,min=0,max=1"`
	// Number of messages kept in conversation memory
	WindowSize int `yaml:"window_size" example:"10" validate:"min=1"`
	// Lifetime of a queued directed message
	QueueTTL time.Duration `yaml:"queue_ttl" example:"5m"`
	// Capacity of the directed message queue
	QueueSize int `yaml:"queue_size" example:"64" validate:"min=1"`
	// Canned lines are not repeated within this window
	RotationWindow time.Duration `yaml:"rotation_window" example:"1h"`
	// Typing delay per output rune and its bounds
	TypingPerChar time.Duration `yaml:"typing_per_char" example:"60ms"`
	TypingMin     time.Duration `yaml:"typing_min" example:"1s"`
	TypingMax     time.Duration `yaml:"typing_max" example:"5s"`
	// Acknowledgment regexes; messages matching them are never answered
	AckPatterns []string `yaml:"ack_patterns"`
	// Disable sending, only log replies
	DryRun bool `yaml:"dry_run" env:"DRY_RUN" example:"false"`
}

type Humanize struct {
	// Phrases removed from the start of generated text
	Boilerplate []string `yaml:"boilerplate"`
	// Text used when everything was stripped
	DefaultReaction string `yaml:"default_reaction" example:"lol"`
	// What to do with exclamation marks
	ExclamationPolicy string `yaml:"exclamation_policy" example:"strip" validate:"omitempty,oneof=strip collapse keep"`
	// Strip pictographic characters
	StripEmoji *bool `yaml:"strip_emoji" example:"true"`
	// Triviality thresholds, in runes
	MinLength     int `yaml:"min_length" example:"4" validate:"min=0"`
	SingleWordMin int `yaml:"single_word_min" example:"6" validate:"min=0"`
	// Idioms and fillers
	Fillers      []string `yaml:"fillers"`
	FillerChance *float64 `yaml:"filler_chance" example:"0.1" validate:"omitempty,min=0,max=1"`
	// Informal substitutions, e.g. you -> u
	Substitutions map[string]string `yaml:"substitutions"`
	TypoChance    *float64          `yaml:"typo_chance" example:"0.04" validate:"omitempty,min=0,max=1"`
	TypoCap       int               `yaml:"typo_cap" example:"5" validate:"min=0"`
	// Correction tails
	Tails      []string `yaml:"tails"`
	TailChance *float64 `yaml:"tail_chance" example:"0.05" validate:"omitempty,min=0,max=1"`
	// Interrogative cue words
	QuestionCues []string `yaml:"question_cues"`
	PeriodChance *float64 `yaml:"period_chance" example:"0.3" validate:"omitempty,min=0,max=1"`
}

type Patterns struct {
	// Pattern store location; .db or .sqlite selects the SQLite backend
	Path string `yaml:"path" env:"PATTERNS_PATH" example:"data/message_patterns.json"`
}

type Collector struct {
	// Messages per history page
	BatchSize int `yaml:"batch_size" example:"100" validate:"min=1,max=100"`
	// Delay between pages
	BatchDelay time.Duration `yaml:"batch_delay" example:"2s"`
	// Max pages to fetch, 0 for no limit
	MaxPages int `yaml:"max_pages" example:"0" validate:"min=0"`
}

type HTTP struct {
	// Status server listen address, empty to disable
	Listen string `yaml:"listen" env:"HTTP_LISTEN" example:":8080"`
}

type Log struct {
	// Minimal level: debug, info, warn or error
	Level string `yaml:"level" env:"LOG_LEVEL" example:"info" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" env:"LOG_TELEGRAM_TOKEN" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" env:"LOG_TELEGRAM_CHAT_ID" example:"1001234567890"`
}

type loadOptions struct {
	generation bool
}

type Option func(*loadOptions)

// WithoutGeneration drops the generation credential requirements, for binaries that never
// call a generator.
func WithoutGeneration() Option {
	return func(o *loadOptions) {
		o.generation = false
	}
}

// Load reads .env, then config.yaml (or $DISCHAT_CONFIG), then overlays the environment.
// Every returned error wraps chat.ErrConfiguration.
func Load(opts ...Option) (*Config, error) {
	options := loadOptions{generation: true}
	for _, opt := range opts {
		opt(&options)
	}

	_ = godotenv.Load()

	path := os.Getenv("DISCHAT_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}

	var result Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, configError("failed to read config file: %w", err)
	default:
		if err = yaml.Unmarshal(data, &result); err != nil {
			return nil, configError("failed to parse YAML config: %w", err)
		}
	}

	if err = env.Parse(&result); err != nil {
		return nil, configError("failed to parse environment: %w", err)
	}

	ApplyDefaults(&result)

	if err = validate(&result, options.generation); err != nil {
		return nil, err
	}

	return &result, nil
}

func Validate(cfg *Config) error {
	return validate(cfg, true)
}

func validate(cfg *Config, generation bool) error {
	cfg.Generation.Gemini.Enabled = generation && cfg.Generation.Provider == "gemini"
	cfg.Generation.OpenAI.Enabled = generation && cfg.Generation.Provider == "openai"

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return configError("failed to validate config: %w", err)
	}

	return nil
}

func configError(format string, args ...any) error {
	return oops.
		In("config").
		Code("configuration").
		Wrapf(fmt.Errorf("%w: %w", chat.ErrConfiguration, fmt.Errorf(format, args...)), "invalid configuration")
}

// ApplyDefaults fills every unset field with its default value.
func ApplyDefaults(cfg *Config) {
	if cfg.Discord.FetchLimit == 0 {
		cfg.Discord.FetchLimit = 20
	}
	if cfg.Discord.MaxMessageLength == 0 {
		cfg.Discord.MaxMessageLength = 2000
	}

	gen := &cfg.Generation
	if gen.Provider == "" {
		gen.Provider = "gemini"
	}
	if gen.Gemini.Model == "" {
		gen.Gemini.Model = "gemini-2.0-flash-lite"
	}
	if gen.OpenAI.BaseURL == "" {
		gen.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if gen.OpenAI.Model == "" {
		gen.OpenAI.Model = "gpt-4o-mini"
	}
	if gen.Temperature == 0 {
		gen.Temperature = 0.9
	}
	if gen.MaxTokens == 0 {
		gen.MaxTokens = 60
	}
	if gen.TopP == 0 {
		gen.TopP = 0.95
	}
	if gen.TopK == 0 {
		gen.TopK = 40
	}
	if gen.OverloadRetries == nil {
		gen.OverloadRetries = lo.ToPtr(3)
	}
	if gen.OverloadDelay == 0 {
		gen.OverloadDelay = 2 * time.Second
	}
	if gen.Timeout == 0 {
		gen.Timeout = 30 * time.Second
	}
	if gen.Persona == "" {
		gen.Persona = "You are a regular member of a casual Discord chat. Reply like a person typing quickly: " +
			"one short sentence, lowercase is fine, no greetings, never say you are an AI, at most one emoji."
	}

	applyQuotaDefaults(&cfg.Budget.Generation, 1500, 24*time.Hour, 4*time.Second)
	applyQuotaDefaults(&cfg.Budget.Polling, 5000, 24*time.Hour, 0)

	r := &cfg.Responder
	if r.TickInterval == 0 {
		r.TickInterval = 20 * time.Second
	}
	if r.TickTimeout == 0 {
		r.TickTimeout = 2 * time.Minute
	}
	if r.MinSpacing == 0 {
		r.MinSpacing = 45 * time.Second
	}
	if r.ResponseChance == nil {
		r.ResponseChance = lo.ToPtr(0.8)
	}
	if r.WindowSize == 0 {
		r.WindowSize = 10
	}
	if r.QueueTTL == 0 {
		r.QueueTTL = 5 * time.Minute
	}
	if r.QueueSize == 0 {
		r.QueueSize = 64
	}
	if r.RotationWindow == 0 {
		r.RotationWindow = time.Hour
	}
	if r.TypingPerChar == 0 {
		r.TypingPerChar = 60 * time.Millisecond
	}
	if r.TypingMin == 0 {
		r.TypingMin = time.Second
	}
	if r.TypingMax == 0 {
		r.TypingMax = 5 * time.Second
	}
	if len(r.AckPatterns) == 0 {
		r.AckPatterns = DefaultAckPatterns
	}

	h := &cfg.Humanize
	if len(h.Boilerplate) == 0 {
		h.Boilerplate = DefaultBoilerplate
	}
	if h.DefaultReaction == "" {
		h.DefaultReaction = "lol"
	}
	if h.ExclamationPolicy == "" {
		h.ExclamationPolicy = "strip"
	}
	if h.StripEmoji == nil {
		h.StripEmoji = lo.ToPtr(true)
	}
	if h.MinLength == 0 {
		h.MinLength = 4
	}
	if h.SingleWordMin == 0 {
		h.SingleWordMin = 6
	}
	if len(h.Fillers) == 0 {
		h.Fillers = DefaultFillers
	}
	if h.FillerChance == nil {
		h.FillerChance = lo.ToPtr(0.1)
	}
	if len(h.Substitutions) == 0 {
		h.Substitutions = DefaultSubstitutions
	}
	if h.TypoChance == nil {
		h.TypoChance = lo.ToPtr(0.04)
	}
	if h.TypoCap == 0 {
		h.TypoCap = 5
	}
	if len(h.Tails) == 0 {
		h.Tails = DefaultTails
	}
	if h.TailChance == nil {
		h.TailChance = lo.ToPtr(0.05)
	}
	if len(h.QuestionCues) == 0 {
		h.QuestionCues = DefaultQuestionCues
	}
	if h.PeriodChance == nil {
		h.PeriodChance = lo.ToPtr(0.3)
	}

	if cfg.Patterns.Path == "" {
		cfg.Patterns.Path = "data/message_patterns.json"
	}

	if cfg.Collector.BatchSize == 0 {
		cfg.Collector.BatchSize = 100
	}
	if cfg.Collector.BatchDelay == 0 {
		cfg.Collector.BatchDelay = 2 * time.Second
	}
}

func applyQuotaDefaults(q *Quota, limit int, window, interval time.Duration) {
	if q.Limit == 0 {
		q.Limit = limit
	}
	if q.Window == 0 {
		q.Window = window
	}
	if q.Interval == 0 {
		q.Interval = interval
	}
	if q.BackoffFactor == 0 {
		q.BackoffFactor = 1.5
	}
	if q.MaxInterval == 0 {
		q.MaxInterval = 2 * time.Minute
	}
	if q.Sticky == nil {
		q.Sticky = lo.ToPtr(true)
	}
}
