//go:build !windows

package core

import (
	"os/exec"
	"syscall"
)

// detach 让子进程脱离父进程的进程组, 服务端收到Ctrl+C时爬虫继续运行
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
