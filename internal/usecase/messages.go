package usecase

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xavierca1/leadflow/internal/entity"
)

func euros(d decimal.Decimal) string {
	return d.StringFixed(2) + "€"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func partnerLeadMessage(lead entity.ContactFields, a Assignment) string {
	return fmt.Sprintf("🔔 *Neuer Lead für dich!*\n\n"+
		"👤 *Name:* %s\n📞 *Telefon:* %s\n📧 *Email:* %s\n\n"+
		"💰 Guthaben: %s verbleibend\n📊 Lead Nr. %d\n\n"+
		"Bitte kontaktiere den Lead so schnell wie möglich! 🚀",
		lead.Name, orDash(lead.Phone), orDash(lead.Email), euros(a.BalanceAfter), a.DeliveredCount)
}

func leadWelcomeMessage(lead entity.ContactFields, partnerName string) string {
	return fmt.Sprintf("Hallo %s! 👋\n\n"+
		"Vielen Dank für dein Interesse! Dein persönlicher Ansprechpartner *%s* "+
		"wird sich in Kürze bei dir melden.\n\nWir freuen uns auf das Gespräch! 😊",
		lead.Name, partnerName)
}

func adminAssignedMessage(lead entity.Lead, a Assignment) string {
	return fmt.Sprintf("🔔 *LEAD VERTEILT (%s)*\n\n"+
		"👤 *Lead:* %s\n📞 *Telefon:* %s\n📧 *Email:* %s\n\n"+
		"➡️ *Zugewiesen an:* %s\n💰 *Partner-Guthaben:* %s",
		lead.Source, lead.Contact.Name, orDash(lead.Contact.Phone), orDash(lead.Contact.Email),
		a.Partner.Name, euros(a.BalanceAfter))
}

func adminNoPartnerMessage(lead entity.ContactFields) string {
	return fmt.Sprintf("⚠️ *ACHTUNG: Lead ohne Partner!*\n\n"+
		"👤 %s\n📞 %s\n📧 %s\n\nKein aktiver Partner mit Guthaben verfügbar!",
		lead.Name, orDash(lead.Phone), orDash(lead.Email))
}

func partnerPausedMessage(name string, balance decimal.Decimal) string {
	return fmt.Sprintf("⚠️ *Partner pausiert!*\n\n👤 %s hat nur noch %s Guthaben.\nNächstes Lead-Paket nötig!",
		name, euros(balance))
}

func adminLedgerErrorMessage(lead entity.ContactFields, err error) string {
	return fmt.Sprintf("❌ *Fehler bei der Lead-Verteilung*\n\n👤 %s\n📞 %s\n\n%s\n\n"+
		"Partner-Konto prüfen und ggf. über /admin/partners/adjust korrigieren.",
		lead.Name, orDash(lead.Phone), err.Error())
}

func adminTopUpMessage(in TopUpInput, out TopUpOutput) string {
	return fmt.Sprintf("💰 *Zahlung eingegangen!*\n\n"+
		"👤 *Partner:* %s\n📞 *Telefon:* %s\n📧 *Email:* %s\n💶 *Betrag:* %s\n\n"+
		"✅ *Aktion:* %s\n📊 *Neues Guthaben:* %s\n\n🔔 Bitte Ad-Budget prüfen!",
		out.Partner, orDash(in.Phone), orDash(in.Email), euros(in.Amount), out.Action, euros(out.BalanceAfter))
}

func adminTopUpPartialMessage(in TopUpInput, partner string, err error) string {
	return fmt.Sprintf("❌ *Zahlung nur teilweise gebucht*\n\n"+
		"👤 *Partner:* %s\n💶 *Betrag:* %s\n🧾 *Referenz:* %s\n\n%s\n\n"+
		"Guthaben ist gebucht, Status bitte über /admin/partners/adjust korrigieren.",
		partner, euros(in.Amount), orDash(in.Reference), err.Error())
}

func adminTopUpUnreadableMessage(in TopUpInput, partner string) string {
	return fmt.Sprintf("❌ *Zahlung nicht gebucht*\n\n"+
		"👤 *Partner:* %s\n💶 *Betrag:* %s\n\n"+
		"Das Guthaben-Feld ist nicht lesbar. Bitte über /admin/partners/adjust (set_balance) korrigieren, "+
		"Stripe stellt die Zahlung danach erneut zu.",
		partner, euros(in.Amount))
}

func adminAmbiguousMatchMessage(payer string, candidates int, chosen string) string {
	return fmt.Sprintf("⚠️ *Zahlung nicht eindeutig zugeordnet*\n\n"+
		"Zahler \"%s\" passt auf %d Partner. Gutgeschrieben bei *%s*, bitte prüfen.",
		payer, candidates, chosen)
}

const testMessage = "Test-Nachricht vom Lead-Verteilungs-System. WhatsApp-Versand funktioniert!"
