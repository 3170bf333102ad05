package queue

import (
    "encoding/json"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartSeatEventConsumer connects to RabbitMQ, declares the seat.events
// queue and appends each event to logs/seat-events.log in a single-line
// format the front desk can tail.  It runs a reconnect loop and never
// takes the server down: processing errors are logged and the offending
// message rejected.  Run it in its own goroutine.
func StartSeatEventConsumer() {
    for {
        if err := consumeOnce(); err != nil {
            log.Printf("seat-events consumer: %v (reconnecting in 5s)", err)
        }
        time.Sleep(5 * time.Second)
    }
}

func consumeOnce() error {
    conn, err := amqp.Dial(brokerURL())
    if err != nil {
        return fmt.Errorf("dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(seatEventQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(seatEventQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume: %w", err)
    }
    for m := range msgs {
        if err := appendEventLog(m.Body); err != nil {
            log.Printf("seat-events consumer: write failed: %v", err)
            _ = m.Nack(false, false)
            continue
        }
        _ = m.Ack(false)
    }
    return fmt.Errorf("delivery channel closed")
}

// appendEventLog writes one event as a single line to logs/seat-events.log.
func appendEventLog(body []byte) error {
    var ev SeatEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return err
    }
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return err
    }
    f, err := os.OpenFile(filepath.Join("logs", "seat-events.log"),
        os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
    if err != nil {
        return err
    }
    defer func() { _ = f.Close() }()

    parts := []string{
        ev.At,
        ev.Type,
        ev.Scope.AcademicYear + "/" + ev.Scope.Semester + "/" + ev.Scope.ClassType,
    }
    if ev.StudentName != "" {
        parts = append(parts, ev.StudentName)
    }
    if ev.Seat != "" {
        parts = append(parts, ev.Classroom+":"+ev.Seat)
    }
    if ev.Type == EventAutoAssigned {
        parts = append(parts, fmt.Sprintf("seated=%d", ev.SeatedCount))
    }
    _, err = fmt.Fprintln(f, strings.Join(parts, " | "))
    return err
}
