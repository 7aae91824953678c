package orchestrator

import (
	"strings"

	"github.com/rivohq/rivo/internal/i18n"
)

// reply is the four sentence auto-reply: acknowledgement, information
// request, premium upsell and the pricing disclaimer.
type reply struct {
	ack         string
	infoRequest string
	upsell      string
	disclaimer  string
}

func (r reply) text() string {
	return strings.Join([]string{r.ack, r.infoRequest, r.upsell, r.disclaimer}, " ")
}

type replyKey struct {
	lang i18n.Language
	flow Flow
}

var disclaimers = map[i18n.Language]string{
	i18n.French:  "Les tarifs et le diagnostic définitifs seront confirmés après inspection par notre équipe.",
	i18n.English: "Final pricing and the definitive diagnosis will be confirmed after inspection by our team.",
	i18n.Arabic:  "سيتم تأكيد الأسعار والتشخيص النهائي بعد فحص السيارة من قِبَل فريقنا.",
}

var replies = map[replyKey]reply{
	{i18n.French, FlowMechanical}: {
		ack:         "Merci, j’ai bien noté que vous avez un souci mécanique.",
		infoRequest: "Pouvez-vous décrire les symptômes, l’urgence, et envoyer une courte vidéo si un bruit ou une vibration est présent ?",
		upsell:      "Souhaitez-vous ajouter notre option premium (contrôle préventif complet en plus de votre demande) ? La plupart de nos clients la choisissent pour sécuriser le véhicule.",
	},
	{i18n.French, FlowDetailingPPF}: {
		ack:         "Merci pour votre message. Je peux vous aider pour votre demande de detailing / PPF.",
		infoRequest: "Pouvez-vous m’indiquer la marque, le modèle et l’année du véhicule, puis envoyer 2–3 photos ?",
		upsell:      "Souhaitez-vous ajouter notre option premium sur ce service ? La plupart de nos clients la prennent pour un résultat plus durable et une meilleure protection.",
	},
	{i18n.French, FlowDirectBooking}: {
		ack:         "Merci, je peux vous aider à planifier un rendez-vous.",
		infoRequest: "Pouvez-vous me préciser le service souhaité ainsi que la marque, le modèle et l’année de votre véhicule ?",
		upsell:      "Souhaitez-vous ajouter notre option premium sur ce service ? La plupart de nos clients la choisissent pour un meilleur résultat et une tenue plus longue.",
	},
	{i18n.English, FlowDetailingPPF}: {
		ack:         "Thank you for your message. I can help you with your detailing / PPF request.",
		infoRequest: "Please send your car make, model and year, plus 2–3 photos of the vehicle.",
		upsell:      "Would you like to add our premium add-on for this service? Most clients choose it for better, longer-lasting results and extra protection.",
	},
	{i18n.English, FlowMechanical}: {
		ack:         "Got it, you are describing a mechanical issue.",
		infoRequest: "Please describe the symptoms, how urgent it is, and, if possible, send a short video showing the noise or vibration.",
		upsell:      "Would you like to add our premium add-on (a preventive full check on top of your request)? Most clients choose it to keep the car safer and more reliable.",
	},
	{i18n.English, FlowDirectBooking}: {
		ack:         "Thank you, I can help you book an appointment.",
		infoRequest: "Please confirm the service you want and your car make, model and year.",
		upsell:      "Would you like to add our premium add-on for this service? Most clients choose it for better, longer-lasting results.",
	},
	{i18n.Arabic, FlowDetailingPPF}: {
		ack:         "شكرًا لرسالتك، يمكنني مساعدتك في خدمة التلميع / الحماية PPF.",
		infoRequest: "من فضلك أرسل نوع السيارة، الموديل، سنة الصنع، مع 2–3 صور للسيارة.",
		upsell:      "هل ترغب في إضافة باقة الترقية المميزة لهذا النوع من الخدمة؟ أغلب عملائنا يختارونها لنتيجة أفضل وحماية تدوم أطول.",
	},
	{i18n.Arabic, FlowMechanical}: {
		ack:         "تم استلام طلبك بخصوص مشكلة ميكانيكية.",
		infoRequest: "من فضلك صف الأعراض ودرجة الاستعجال، وإن أمكن أرسل فيديو قصير يوضح الصوت أو الاهتزاز.",
		upsell:      "هل ترغب في إضافة باقة الترقية المميزة (فحص وقائي كامل مع خدمتك)؟ أغلب العملاء يختارونها لزيادة الأمان.",
	},
	{i18n.Arabic, FlowDirectBooking}: {
		ack:         "شكرًا لك، يمكنني مساعدتك في حجز موعد.",
		infoRequest: "من فضلك أخبرني بالخدمة المطلوبة مع نوع السيارة، الموديل وسنة الصنع.",
		upsell:      "هل ترغب في إضافة باقة الترقية المميزة لهذه الخدمة؟ أغلب عملائنا يختارونها لنتيجة أفضل تدوم لفترة أطول.",
	},
}

// Reply returns the canned reply for lang and flow. Pairs outside the
// table fall back to English direct booking.
func Reply(lang i18n.Language, flow Flow) string {
	r, ok := replies[replyKey{lang, flow}]
	if !ok {
		lang = i18n.English
		r = replies[replyKey{i18n.English, FlowDirectBooking}]
	}
	r.disclaimer = disclaimers[lang]
	return r.text()
}
