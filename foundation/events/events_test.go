package events_test

import (
	"testing"

	"github.com/ardanlabs/autochain/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to deliver events to registered receivers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a receiver.", testID)
		{
			evts := events.New()

			ch := evts.Acquire("one")
			if evts.Len() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have one receiver, got %d.", failed, testID, evts.Len())
			}
			t.Logf("\t%s\tTest %d:\tShould have one receiver.", success, testID)

			if again := evts.Acquire("one"); again != ch {
				t.Fatalf("\t%s\tTest %d:\tShould get the same channel for the same id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the same channel for the same id.", success, testID)

			evts.Send("hello")
			if msg := <-ch; msg != "hello" {
				t.Fatalf("\t%s\tTest %d:\tShould receive the event, got %q.", failed, testID, msg)
			}
			t.Logf("\t%s\tTest %d:\tShould receive the event.", success, testID)

			if err := evts.Release("one"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to release the receiver: %v", failed, testID, err)
			}
			if _, open := <-ch; open {
				t.Fatalf("\t%s\tTest %d:\tShould close the channel on release.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould close the channel on release.", success, testID)

			if err := evts.Release("one"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail to release an unknown id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould fail to release an unknown id.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a receiver is not keeping up.", testID)
		{
			evts := events.New()
			ch := evts.Acquire("slow")

			for range 150 {
				evts.Send("x")
			}

			if len(ch) != 100 {
				t.Fatalf("\t%s\tTest %d:\tShould drop events beyond the buffer, got %d.", failed, testID, len(ch))
			}
			t.Logf("\t%s\tTest %d:\tShould drop events beyond the buffer.", success, testID)

			evts.Shutdown()
			if evts.Len() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould remove all receivers on shutdown.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould remove all receivers on shutdown.", success, testID)
		}
	}
}
