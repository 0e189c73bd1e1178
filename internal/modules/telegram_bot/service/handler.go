package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	ledger "pnl_prover/internal/modules/ledger/service"
	prover "pnl_prover/internal/modules/prover/service"
	verifier "pnl_prover/internal/modules/verifier/service"
	"pnl_prover/pkg/logger"
)

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		// callback, inline mode и т.п. не используем
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		var err error
		switch msg.Command() {
		case "start":
			t.clearAwait(chatID)
			_, err = t.Send(ctx, chatID, startText)
		case "help":
			_, err = t.Send(ctx, chatID, helpText(t.cfg.Prover.DefaultPolicy))
		case "policies":
			_, err = t.Send(ctx, chatID, formatPolicies(t.prover.Policies(), t.cfg.Prover.DefaultPolicy))
		case "verify":
			err = t.handleVerify(ctx, chatID, msg.CommandArguments())
		case "receipt":
			_, err = t.Send(ctx, chatID, t.receiptReply(ctx, strings.TrimSpace(msg.CommandArguments())))
		default:
			_, err = t.Send(ctx, chatID, "🤔 Unknown command, try /help")
		}
		if err != nil {
			logger.Error("telegram: /%s for chat %d: %v", msg.Command(), chatID, err)
		}
		return
	}

	t.handleTextMessage(ctx, msg)
}

func (t *Telegram) handleVerify(ctx context.Context, chatID int64, args string) error {
	policy, fields := splitPolicy(strings.Fields(args), t.prover.Policies(), t.cfg.Prover.DefaultPolicy)
	if len(fields) == 0 {
		// позицию пришлют следующим сообщением
		t.setAwait(chatID, policy)
		_, err := t.SendF(ctx, chatID, "Policy `%s`. %s", policy, usageText)
		return err
	}
	t.goVerify(ctx, chatID, policy, fields)
	return nil
}

func (t *Telegram) handleTextMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	policy, ok := t.popAwait(chatID)
	if !ok {
		if _, err := t.Send(ctx, chatID, usageText); err != nil {
			logger.Error("telegram: usage for chat %d: %v", chatID, err)
		}
		return
	}
	t.goVerify(ctx, chatID, policy, strings.Fields(msg.Text))
}

// goVerify доказывает в фоне: это секунды, а цикл апдейтов блокировать нельзя.
func (t *Telegram) goVerify(ctx context.Context, chatID int64, policy string, fields []string) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		status, statusErr := t.Send(ctx, chatID, checkingText)
		reply := t.verifyReply(ctx, policy, fields)
		if statusErr == nil {
			if err := t.editText(chatID, status.MessageID, reply); err == nil {
				return
			}
		}
		if _, err := t.Send(ctx, chatID, reply); err != nil {
			logger.Error("telegram: verify reply for chat %d: %v", chatID, err)
		}
	}()
}

func (t *Telegram) verifyReply(ctx context.Context, policy string, fields []string) string {
	pos, err := parsePosition(fields)
	if err != nil {
		return fmt.Sprintf("❌ %v\n\n%s", err, usageText)
	}

	res, err := t.prover.Run(ctx, policy, pos)
	if err != nil {
		var perr *prover.ProvingError
		if !errors.As(err, &perr) {
			return failureText
		}
		switch perr.Kind {
		case prover.KindVerificationMismatch:
			return formatFake(fakeMessages[t.pick(len(fakeMessages))], pos, perr.Reason)
		case prover.KindInvalidPosition:
			return fmt.Sprintf("❌ This position can't be checked: %v", perr.Err)
		}
		return failureText
	}

	return formatVerified(verifiedMessages[t.pick(len(verifiedMessages))], res, t.anchorReceipt(ctx, res))
}

// anchorReceipt публикует хеш доказательства, если якорь включён. Ошибка якоря не отменяет доказательство.
func (t *Telegram) anchorReceipt(ctx context.Context, res *prover.Result) string {
	if t.anchor == nil || !t.anchor.Enabled() {
		return ""
	}
	tx, err := t.anchor.Submit(ctx, res.Receipt)
	if err != nil {
		logger.Error("telegram: anchor %s: %v", res.Receipt.ID, err)
		return ""
	}
	if err = t.receipts.SetAnchor(ctx, res.Receipt.ID, tx); err != nil {
		logger.Error("telegram: record anchor %s: %v", res.Receipt.ID, err)
	}
	return t.anchor.Link(tx)
}

func (t *Telegram) receiptReply(ctx context.Context, id string) string {
	if id == "" {
		return "Usage: `/receipt <id>`"
	}

	rec, err := t.receipts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return fmt.Sprintf("🤷 No receipt `%s`", id)
		}
		logger.Error("telegram: get receipt %s: %v", id, err)
		return failureText
	}

	verdict := "accepted ✅"
	prog, err := t.programs.Load(rec.Receipt.Policy)
	if err == nil {
		err = t.checker.Verify(ctx, &rec.Receipt, prog.Identity)
	}
	if err != nil {
		var verr *verifier.VerificationError
		if errors.As(err, &verr) {
			verdict = fmt.Sprintf("rejected ❌ (%s)", verr.Kind)
		} else {
			verdict = "rejected ❌ (program unavailable)"
		}
	}

	link := ""
	if rec.AnchorTx != "" {
		link = t.anchor.Link(rec.AnchorTx)
	}
	return formatRecord(rec, verdict, link)
}
