package cmd

import "testing"

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"serve", "migrate", "ingest", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestIngestRequiresProjectFlag(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("project")
	if flag == nil {
		t.Fatal("ingest command missing --project flag")
	}
}
