package wire

import "io"

// LoadRequest is command 0's request record.
type LoadRequest struct {
	Name         string
	LaunchOnBoot bool
	TermRerun    bool
	TimeToStopMs int32
	Wait         bool
	Args         []string
}

func WriteLoadRequest(w io.Writer, req LoadRequest) error {
	if err := WriteString(w, req.Name); err != nil {
		return err
	}
	if err := WriteInt32(w, int32(len(req.Args))); err != nil {
		return err
	}
	if err := WriteBool(w, req.LaunchOnBoot); err != nil {
		return err
	}
	if err := WriteBool(w, req.TermRerun); err != nil {
		return err
	}
	if err := WriteInt32(w, req.TimeToStopMs); err != nil {
		return err
	}
	if err := WriteBool(w, req.Wait); err != nil {
		return err
	}
	for _, a := range req.Args {
		if err := WriteString(w, a); err != nil {
			return err
		}
	}
	return nil
}

func ReadLoadRequest(r io.Reader) (LoadRequest, error) {
	var req LoadRequest
	var err error
	if req.Name, err = ReadString(r); err != nil {
		return req, err
	}
	argc, err := ReadInt32(r)
	if err != nil {
		return req, err
	}
	if req.LaunchOnBoot, err = ReadBool(r); err != nil {
		return req, err
	}
	if req.TermRerun, err = ReadBool(r); err != nil {
		return req, err
	}
	if req.TimeToStopMs, err = ReadInt32(r); err != nil {
		return req, err
	}
	if req.Wait, err = ReadBool(r); err != nil {
		return req, err
	}
	req.Args = make([]string, argc)
	for i := range req.Args {
		if req.Args[i], err = ReadString(r); err != nil {
			return req, err
		}
	}
	return req, nil
}

// StopRequest is command 1's request record.
type StopRequest struct {
	Name string
	Wait bool
}

func WriteStopRequest(w io.Writer, req StopRequest) error {
	if err := WriteString(w, req.Name); err != nil {
		return err
	}
	return WriteBool(w, req.Wait)
}

func ReadStopRequest(r io.Reader) (StopRequest, error) {
	var req StopRequest
	var err error
	if req.Name, err = ReadString(r); err != nil {
		return req, err
	}
	req.Wait, err = ReadBool(r)
	return req, err
}

// NameWaitRequest covers Rerun (command 2), which shares Stop's shape.
type NameWaitRequest = StopRequest

func WriteNameWaitRequest(w io.Writer, req NameWaitRequest) error { return WriteStopRequest(w, req) }
func ReadNameWaitRequest(r io.Reader) (NameWaitRequest, error)    { return ReadStopRequest(r) }

// NameRequest covers IsRunning (command 3) and GetPid (command 4).
type NameRequest struct {
	Name string
}

func WriteNameRequest(w io.Writer, req NameRequest) error {
	return WriteString(w, req.Name)
}

func ReadNameRequest(r io.Reader) (NameRequest, error) {
	name, err := ReadString(r)
	return NameRequest{Name: name}, err
}

// AgentReport is the single record an agent sends after connecting and
// tagging itself RoleAgent.
type AgentReport struct {
	Name  string
	Pid   int32
	Error int32
}

func WriteAgentReport(w io.Writer, rep AgentReport) error {
	if err := WriteString(w, rep.Name); err != nil {
		return err
	}
	if err := WriteInt32(w, rep.Pid); err != nil {
		return err
	}
	return WriteInt32(w, rep.Error)
}

func ReadAgentReport(r io.Reader) (AgentReport, error) {
	var rep AgentReport
	var err error
	if rep.Name, err = ReadString(r); err != nil {
		return rep, err
	}
	if rep.Pid, err = ReadInt32(r); err != nil {
		return rep, err
	}
	rep.Error, err = ReadInt32(r)
	return rep, err
}
