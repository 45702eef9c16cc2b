package generation

// Canned replies used when the completion provider fails. Keyed by
// language|tone; the generation path never surfaces provider errors to the
// end user, it degrades to these instead (availability over strict
// correctness for a non-critical feature).
var fallbackReplies = map[string]string{
	"en|professional": "Thank you for taking the time to share your feedback. We value every review and will use your comments to keep improving our service. Please don't hesitate to reach out to us directly if there is anything more we can do for you.",
	"en|friendly":     "Thanks so much for your review! We really appreciate you taking the time to share your thoughts, and we hope to see you again soon.",
	"en|apologetic":   "Thank you for your feedback, and we are sincerely sorry your experience did not meet expectations. We take your comments seriously and would welcome the chance to make things right. Please contact us directly.",
	"en|enthusiastic": "Wow, thank you for the amazing feedback! Reviews like yours make our day. We can't wait to welcome you back!",
	"es|professional": "Gracias por tomarse el tiempo de compartir su opinión. Valoramos cada reseña y utilizaremos sus comentarios para seguir mejorando nuestro servicio.",
	"es|friendly":     "¡Muchas gracias por su reseña! Apreciamos mucho que haya compartido su experiencia y esperamos verle pronto.",
	"fr|professional": "Merci d'avoir pris le temps de partager votre avis. Chaque retour compte pour nous et nous aide à améliorer notre service.",
	"de|professional": "Vielen Dank, dass Sie sich die Zeit genommen haben, Ihr Feedback zu teilen. Jede Bewertung hilft uns, unseren Service weiter zu verbessern.",
	"it|professional": "Grazie per aver condiviso la sua opinione. Ogni recensione è preziosa e ci aiuta a migliorare il nostro servizio.",
	"pt|professional": "Obrigado por dedicar seu tempo para compartilhar sua avaliação. Valorizamos cada comentário e o usaremos para continuar melhorando nosso serviço.",
}

// fallbackReply returns the canned reply for the language/tone pair,
// degrading to the language's professional variant and finally to English.
func fallbackReply(language, tone string) string {
	if reply, ok := fallbackReplies[language+"|"+tone]; ok {
		return reply
	}
	if reply, ok := fallbackReplies[language+"|"+DefaultTone]; ok {
		return reply
	}
	return fallbackReplies[DefaultLanguage+"|"+DefaultTone]
}
