package mail

type AlertEmailData struct {
	Subject string
	Body    string
	Service string
	SentAt  string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}
