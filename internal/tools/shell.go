package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"time"

	"github.com/agentcore/orchestrator/internal/sandbox"
)

// defaultDenyPatterns blocks command shapes that are destructive, exfiltrate
// data, open reverse shells, escalate privilege, or otherwise abuse the host
// regardless of what the session sandbox would have allowed on the
// filesystem side. Kept close to the hardening the teacher shipped — this
// class of defense-in-depth doesn't change when the domain does.
var defaultDenyPatterns = []*regexp.Regexp{
	// Destructive file operations
	regexp.MustCompile(`\brm\s+-[rf]{1,2}\b`),
	regexp.MustCompile(`\brm\s+.*--recursive`),
	regexp.MustCompile(`\brm\s+.*--force`),
	regexp.MustCompile(`\b(mkfs|diskpart)\b|\bformat\s`),
	regexp.MustCompile(`\bdd\s+if=`),
	regexp.MustCompile(`>\s*/dev/sd[a-z]\b`),
	regexp.MustCompile(`\b(shutdown|reboot|poweroff)\b`),
	regexp.MustCompile(`:\(\)\s*\{.*\};\s*:`), // fork bomb

	// Data exfiltration
	regexp.MustCompile(`\bcurl\b.*\|\s*(ba)?sh\b`),
	regexp.MustCompile(`\bcurl\b.*(-d\b|-F\b|--data|--upload|--form|-T\b|-X\s*P(UT|OST|ATCH))`),
	regexp.MustCompile(`\bwget\b.*-O\s*-\s*\|\s*(ba)?sh\b`),
	regexp.MustCompile(`\bwget\b.*--post-(data|file)`),
	regexp.MustCompile(`/dev/tcp/`),

	// Reverse shells
	regexp.MustCompile(`\b(nc|ncat|netcat)\b.*-[el]\b`),
	regexp.MustCompile(`\bsocat\b`),
	regexp.MustCompile(`\bopenssl\b.*s_client`),
	regexp.MustCompile(`\bpython[23]?\b.*\bimport\s+(socket|http\.client|urllib|requests)\b`),
	regexp.MustCompile(`\bperl\b.*-e\s*.*\b[Ss]ocket\b`),
	regexp.MustCompile(`\bruby\b.*-e\s*.*\b(TCPSocket|Socket)\b`),
	regexp.MustCompile(`\bnode\b.*-e\s*.*\b(net\.connect|child_process)\b`),
	regexp.MustCompile(`\bmkfifo\b`),

	// Dangerous eval / code injection
	regexp.MustCompile(`\beval\s*\$`),
	regexp.MustCompile(`\bbase64\s+-d\b.*\|\s*(ba)?sh\b`),

	// Privilege escalation
	regexp.MustCompile(`\bsudo\b`),
	regexp.MustCompile(`\bsu\s+-`),
	regexp.MustCompile(`\bnsenter\b`),
	regexp.MustCompile(`\bunshare\b`),
	regexp.MustCompile(`\b(mount|umount)\b`),

	// Dangerous path operations
	regexp.MustCompile(`\bchmod\s+[0-7]{3,4}\s+/`),
	regexp.MustCompile(`\bchown\b.*\s+/`),

	// Environment variable injection
	regexp.MustCompile(`\bLD_PRELOAD\s*=`),
	regexp.MustCompile(`\bDYLD_INSERT_LIBRARIES\s*=`),
	regexp.MustCompile(`\bLD_LIBRARY_PATH\s*=`),
	regexp.MustCompile(`\bBASH_ENV\s*=`),

	// Container/host escape
	regexp.MustCompile(`/var/run/docker\.sock|docker\.(sock|socket)`),
	regexp.MustCompile(`/proc/sys/(kernel|fs|net)/`),
	regexp.MustCompile(`/sys/(kernel|fs|class|devices)/`),

	// Network abuse / reconnaissance
	regexp.MustCompile(`\b(nmap|masscan|zmap|rustscan)\b`),
	regexp.MustCompile(`\b(chisel|frp|ngrok|cloudflared|bore|localtunnel)\b`),

	// Persistence
	regexp.MustCompile(`\bcrontab\b`),
	regexp.MustCompile(`>\s*~/?\.(bashrc|bash_profile|profile|zshrc)`),

	// Process manipulation
	regexp.MustCompile(`\bkill\s+-9\s`),
	regexp.MustCompile(`\b(killall|pkill)\b`),

	// Environment dumping
	regexp.MustCompile(`^\s*env\s*$`),
	regexp.MustCompile(`^\s*env\s*\|`),
	regexp.MustCompile(`\bprintenv\b`),
	regexp.MustCompile(`^\s*(set|export\s+-p|declare\s+-x)\s*($|\|)`),
}

// ExecTool runs a shell command with its working directory pinned to the
// session's sandbox root. It never receives a caller-supplied absolute
// path: any "working_dir" parameter is resolved through the sandbox first.
type ExecTool struct {
	sandbox      sandbox.Manager
	timeout      time.Duration
	denyPatterns []*regexp.Regexp
}

func NewExecTool(sb sandbox.Manager) *ExecTool {
	return &ExecTool{sandbox: sb, timeout: 60 * time.Second, denyPatterns: defaultDenyPatterns}
}

func (t *ExecTool) Descriptor() Descriptor {
	return NewDescriptor("exec", "Execute a shell command rooted at the session sandbox directory").
		WithCapabilities("shell:exec", "process:run").
		WithFilesystem().
		WithAlternatives("exec_short").
		WithParameter(ParameterSpec{Name: "command", Type: "string", Required: true, Description: "The shell command to execute"}).
		WithParameter(ParameterSpec{Name: "working_dir", Type: "string", Required: false, Description: "Optional subdirectory, relative to the session root, to run the command in"})
}

func (t *ExecTool) Execute(ctx context.Context, tc *Context) *Result {
	command, ok := tc.Param("command")
	if !ok || command == "" {
		return Fail("command is required")
	}

	for _, pattern := range t.denyPatterns {
		if pattern.MatchString(command) {
			return Fail(fmt.Sprintf("command denied by safety policy: matches pattern %s", pattern.String()))
		}
	}

	cwd, err := t.sandbox.SafeWorkingDirectory(tc.SessionID)
	if err != nil {
		return sandboxFailure(err)
	}
	if wd, ok := tc.Param("working_dir"); ok && wd != "" {
		resolved, err := t.sandbox.ResolveSafe(tc.SessionID, wd)
		if err != nil {
			return sandboxFailure(err)
		}
		cwd = resolved
	}

	return t.run(ctx, command, cwd)
}

func (t *ExecTool) run(ctx context.Context, command, cwd string) *Result {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	var output string
	if stdout.Len() > 0 {
		output = stdout.String()
	}
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n"
		}
		output += "STDERR:\n" + stderr.String()
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Fail(fmt.Sprintf("command timed out after %s", t.timeout))
		}
		if output == "" {
			output = err.Error()
		}
		return Fail(output)
	}

	if output == "" {
		output = "(command completed with no output)"
	}
	return OK(output)
}

// AlternativeMethod offers "exec_short", a reduced-timeout retry used when
// the primary run's longer timeout is itself suspected to be the failure
// (e.g. a command that hangs waiting on stdin).
func (t *ExecTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	if name != "exec_short" {
		return nil, false
	}
	command, ok := tc.Param("command")
	if !ok || command == "" {
		return Fail("command is required"), true
	}
	for _, pattern := range t.denyPatterns {
		if pattern.MatchString(command) {
			return Fail(fmt.Sprintf("command denied by safety policy: matches pattern %s", pattern.String())), true
		}
	}
	cwd, err := t.sandbox.SafeWorkingDirectory(tc.SessionID)
	if err != nil {
		return sandboxFailure(err), true
	}
	short := &ExecTool{sandbox: t.sandbox, timeout: 5 * time.Second, denyPatterns: t.denyPatterns}
	return short.run(ctx, command, cwd), true
}
