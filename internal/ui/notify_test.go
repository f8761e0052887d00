package ui

import (
	"bytes"
	"errors"
	"testing"
)

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := consoleNotifier{out: &buf}

	n.Info("Mise à jour terminée !")
	n.Log("Créneau supprimé")
	n.Err("Calendrier non modifié.", errors.New("disk full"))
	n.Err("Calendrier non modifié.", nil)

	want := "Mise à jour terminée !\n" +
		"  Créneau supprimé\n" +
		"Calendrier non modifié. (disk full)\n" +
		"Calendrier non modifié.\n"
	if buf.String() != want {
		t.Errorf("output =\n%q\nwant\n%q", buf.String(), want)
	}
}
