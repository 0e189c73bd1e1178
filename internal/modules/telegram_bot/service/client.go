package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pnl_prover/internal/models"
	"pnl_prover/internal/modules/config"
	ledger "pnl_prover/internal/modules/ledger/service"
	prover "pnl_prover/internal/modules/prover/service"
	"pnl_prover/internal/zkvm"
	"pnl_prover/pkg/logger"
)

type Prover interface {
	Run(ctx context.Context, policy string, pos models.Position) (*prover.Result, error)
	Policies() []models.PolicyConfig
}

type Anchorer interface {
	Enabled() bool
	Submit(ctx context.Context, receipt *models.Receipt) (string, error)
	Link(txHash string) string
}

type Receipts interface {
	Get(ctx context.Context, id string) (*ledger.Record, error)
	SetAnchor(ctx context.Context, id, tx string) error
}

type Checker interface {
	Verify(ctx context.Context, receipt *models.Receipt, expectedIdentity string) error
}

type Programs interface {
	Load(name string) (*zkvm.Program, error)
}

// Telegram
type Telegram struct {
	bot *tgbot.BotAPI
	cfg *config.Config

	prover   Prover
	anchor   Anchorer
	receipts Receipts
	checker  Checker
	programs Programs

	await *awaitStore
	pick  func(n int) int

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTelegram(
	cfg *config.Config,
	p Prover,
	a Anchorer,
	r Receipts,
	c Checker,
	programs Programs,
) (*Telegram, error) {
	if cfg.Telegram.Token == "" {
		return nil, errors.New("telegram: token is empty, set TELEGRAM_TOKEN")
	}
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	logger.Info("telegram: authorized as @%s", b.Self.UserName)

	t := newTelegram(cfg, p, a, r, c, programs)
	t.bot = b
	return t, nil
}

func newTelegram(cfg *config.Config, p Prover, a Anchorer, r Receipts, c Checker, programs Programs) *Telegram {
	return &Telegram{
		cfg:      cfg,
		prover:   p,
		anchor:   a,
		receipts: r,
		checker:  c,
		programs: programs,
		await:    newAwaitStore(),
		pick:     rand.IntN,
	}
}

func (t *Telegram) Send(ctx context.Context, chatID int64, msg string) (tgbot.Message, error) {
	m := tgbot.NewMessage(chatID, msg)
	m.ParseMode = tgbot.ModeMarkdown
	return t.SendMessage(ctx, m)
}

func (t *Telegram) SendF(ctx context.Context, chatID int64, format string, args ...any) (tgbot.Message, error) {
	return t.Send(ctx, chatID, fmt.Sprintf(format, args...))
}

func (t *Telegram) SendMessage(_ context.Context, message tgbot.MessageConfig) (tgbot.Message, error) {
	return t.bot.Send(message)
}

func (t *Telegram) editText(chatID int64, msgID int, text string) error {
	edit := tgbot.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbot.ModeMarkdown
	_, err := t.bot.Request(edit)
	return err
}

// Start запускает long polling в фоне и сразу возвращается.
func (t *Telegram) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()
}

func (t *Telegram) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	t.bot.StopReceivingUpdates()
	t.wg.Wait()
}
