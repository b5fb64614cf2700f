package queue

import (
	"github.com/streadway/amqp"
)

// LaunchQueueName is the durable broker queue launch events land on.
const LaunchQueueName = "campaign_launches"

// AMQPPublisher pushes serialized launch events onto RabbitMQ.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	name string
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	_, err = ch.QueueDeclare(
		LaunchQueueName, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, ch: ch, name: LaunchQueueName}, nil
}

func (p *AMQPPublisher) Publish(body []byte) error {
	return p.ch.Publish(
		"",     // default exchange
		p.name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() {
	p.ch.Close()
	p.conn.Close()
}
