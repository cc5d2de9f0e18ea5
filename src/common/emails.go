package common

import (
	"log"

	"travleap/src/lib"

	awslib "travleap/src/lib/aws"

	"github.com/tidwall/gjson"
)

func sendMailFromPayload(spayload string) {
	from := gjson.Get(spayload, "from").String()
	fromName := gjson.Get(spayload, "from-name").String()
	subject := gjson.Get(spayload, "subject").String()
	log.Printf("from [%s] with subject: %s\n", from, subject)

	toArr := gjson.Get(spayload, "to").Array()
	to := make([]string, 0)
	for _, item := range toArr {
		to = append(to, item.String())
	}
	ccArr := gjson.Get(spayload, "cc").Array()
	cc := make([]string, 0)
	for _, item := range ccArr {
		cc = append(cc, item.String())
	}
	bccArr := gjson.Get(spayload, "bcc").Array()
	bcc := make([]string, 0)
	for _, item := range bccArr {
		bcc = append(bcc, item.String())
	}

	input := &lib.SendMailInput{
		From:     from,
		FromName: fromName,
		To:       to,
		Cc:       cc,
		Bcc:      bcc,
		Subject:  subject,
		Body:     gjson.Get(spayload, "body").String(),
		Html:     gjson.Get(spayload, "html").Bool(),
	}
	if err := lib.SendMail(input); err != nil {
		log.Printf("[MAILER] error sending email: %s\n", err.Error())
		return
	}
	log.Printf("[MAILER]: an email has been sent to %s\n", to)
}

func KafkaEmailsToSendConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("[EmailsToSend]: Received invalid json body. Aborting")
		return
	}
	go sendMailFromPayload(spayload)
}

func EmailsToSendConsumer() {
	qname := lib.WithSuffix("EmailsToSend")
	log.Printf("%s: Listening for messages...", qname)
	c := awslib.NewSQSConsumer(qname, func(spayload string) {
		if !gjson.Valid(spayload) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		go sendMailFromPayload(spayload)
	})
	c.Listen()
}
