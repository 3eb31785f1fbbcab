package alerts

import (
	mail "gopkg.in/mail.v2"

	"github.com/vigil-monitoring/vigil/pkg/definitions"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

// deliverEmail sends the incident text over SMTP.
func (s *Service) deliverEmail(alert *definitions.Alert, inc model.Incident) error {
	m := mail.NewMessage()
	m.SetHeader("From", alert.From)
	m.SetHeader("To", alert.To...)
	m.SetHeader("Subject", "vigil: "+inc.Endpoint.Identity.String())
	m.SetBody("text/plain", inc.Message)

	d := mail.NewDialer(alert.Host, alert.Port, alert.Username, alert.Password)
	if alert.TLS {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}
	return d.DialAndSend(m)
}
