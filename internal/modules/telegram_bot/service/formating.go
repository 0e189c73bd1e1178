package service

import (
	"fmt"
	"strings"

	"pnl_prover/internal/models"
	ledger "pnl_prover/internal/modules/ledger/service"
	prover "pnl_prover/internal/modules/prover/service"
)

var fakeMessages = []string{
	"🚨 SCAM ALERT: This trade's faker than monopoly money! 💸",
	"❌ Busted! This PnL couldn't fool a calculator. 📉",
	"🕵️‍♂️ We investigated, and it's a hard NOPE. 🚫",
	"😂 Fake trade alert—somebody call the SEC! 📞",
	"🔥 This trade's cooked, and not in a good way. 🧯",
	"😅 Nice try, but we see through the smoke and mirrors. 🪞",
	"💀 RIP to this fake trade—it's DOA. 🚑",
	"🤡 Clown move detected—this PnL is a circus. 🎪",
	"🛑 Halted: This trade's about as real as Bigfoot. 🦶",
	"😤 Fraud level: Over 9000. This trade's a joke! 🤬",
	"🚨 Fraud detected—somebody call the blockchain police! 👮",
	"📉 This trade's got more red flags than a bullring. 🚩",
	"💥 This PnL just imploded under scrutiny. BOOM! 💣",
	"🪤 Caught in 4K! This trade's a straight-up scam. 🎥",
}

var verifiedMessages = []string{
	"🚀 This trade checks out—moonshot confirmed! 🌕",
	"🤑 Trade verified—somebody's swimming in gains! 💸",
	"🎯 Bullseye! This trade's the real deal. 🐂",
	"💎 Hands confirmed—this trader's a diamond among us! ✨",
	"🏆 Verified! Somebody deserves a trophy for this one. 🏅",
	"📊 PnL verified and it's pure gold. 💰",
	"✅ This trade's so clean, it sparkles. ✨",
	"🔥 Legit as they come! Somebody's on a heater! ♨️",
	"🎉 Big win verified—pop the champagne! 🍾",
	"📈 The math adds up—green candles all day! 🕯️",
	"💪 Strong hands, strong gains. Verified PnL! 🧾",
	"📜 PnL verified—honesty pays off! 💵",
}

const (
	startText = "🚀 Welcome to the No-Cap PnL Verifier! 💯\n\n" +
		"Send me a trade and I'll check the claimed PnL with a zero-knowledge proof.\n\n" +
		"Hit /help if you're lost in the sauce! 🌊"

	usageText = "Send the position as:\n" +
		"`/verify [policy] <entry> <current> <pnl%> [leverage]`\n" +
		"e.g. `/verify 100 150 95 2`"

	failureText = "💀 Ayo something's not working right! Give it another shot! 🔄"

	checkingText = "👀 Checking out that PnL, gimme a sec fam..."
)

func helpText(def string) string {
	var b strings.Builder
	b.WriteString("🤖 *How to use this bot*\n\n")
	b.WriteString(usageText)
	b.WriteString("\n\nCommands:\n" +
		"/verify - prove a claimed PnL\n" +
		"/receipt <id> - show and re-verify a stored receipt\n" +
		"/policies - list verification policies\n" +
		"/start - fresh start vibes\n\n")
	fmt.Fprintf(&b, "Default policy: `%s`", def)
	return b.String()
}

func formatPolicies(policies []models.PolicyConfig, def string) string {
	var b strings.Builder
	b.WriteString("*Policies*\n\n")
	for _, p := range policies {
		marker := ""
		if p.Name == def {
			marker = " (default)"
		}
		fmt.Fprintf(&b, "`%s`%s: leverage=%s, tolerance=%s, commit=%s\n",
			p.Name, marker, onOff(p.Leverage), p.Tolerance, p.Commit)
	}
	return b.String()
}

func formatVerified(pick string, res *prover.Result, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nNO CAP 🫡\n\n", pick)
	fmt.Fprintf(&b, "Policy: %s\n", res.Policy.Name)
	if res.Value.PnL != nil {
		fmt.Fprintf(&b, "Proven PnL: %.4f%% 📈\n", *res.Value.PnL)
	} else {
		b.WriteString("Claim accepted within tolerance ✅\n")
	}
	fmt.Fprintf(&b, "Receipt: `%s`\n", res.Receipt.ID)
	fmt.Fprintf(&b, "Proof hash: `%s`\n", res.Receipt.ProofHash())
	if link != "" {
		fmt.Fprintf(&b, "\n🔗 Proof: %s\n", link)
	}
	return b.String()
}

func formatFake(pick string, pos models.Position, reason *models.AbortReason) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nThis is pure CAP! 🧢\n\n", pick)
	fmt.Fprintf(&b, "Entry: $%g ❌\n", pos.EntryPrice)
	fmt.Fprintf(&b, "Exit: $%g ❌\n", pos.CurrentPrice)
	fmt.Fprintf(&b, "Claimed Gains: %g%% 🧢\n", pos.ClaimedPnL)
	if reason != nil {
		fmt.Fprintf(&b, "Actual: %.4f%% (off by %.4f, allowed %.4f)\n", reason.Calculated, reason.Diff, reason.Bound)
	}
	return b.String()
}

func formatRecord(rec *ledger.Record, verdict string, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Receipt* `%s`\n\n", rec.Receipt.ID)
	fmt.Fprintf(&b, "Policy: %s\n", rec.Receipt.Policy)
	fmt.Fprintf(&b, "Journal: %s\n", rec.Value)
	fmt.Fprintf(&b, "Program: `%s`\n", short(rec.Receipt.ProgramIdentity))
	fmt.Fprintf(&b, "Proof hash: `%s`\n", rec.ProofHash)
	fmt.Fprintf(&b, "Created: %s\n", rec.Receipt.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if link != "" {
		fmt.Fprintf(&b, "Anchored: %s\n", link)
	}
	fmt.Fprintf(&b, "\nVerification: %s", verdict)
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
