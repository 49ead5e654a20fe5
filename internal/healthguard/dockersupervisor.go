package healthguard

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// DockerSupervisor implements Supervisor against the Docker Engine API
// over its Unix socket, filtered to the containers of one compose
// project (health_guard.py's `docker_client.containers.list(filters=...)`).
// It is a plain REST client rather than a generated SDK: the Engine API
// is a small, stable, directly-documented HTTP surface, and none of the
// example repos in the retrieval pack ship a Docker client we could
// reuse instead (justified in DESIGN.md).
type DockerSupervisor struct {
	http        *http.Client
	projectName string
}

// NewDockerSupervisor dials the Docker daemon over socketPath (typically
// /var/run/docker.sock), scoping every call to containers labeled with
// com.docker.compose.project=projectName.
func NewDockerSupervisor(socketPath, projectName string) *DockerSupervisor {
	return &DockerSupervisor{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return (&net.Dialer{}).DialContext(ctx, "unix", socketPath)
				},
			},
			Timeout: dialTimeout,
		},
		projectName: projectName,
	}
}

type dockerContainer struct {
	ID     string            `json:"Id"`
	Names  []string          `json:"Names"`
	Labels map[string]string `json:"Labels"`
}

// ListContainers returns every container (running or not) whose compose
// project label matches, with Address set to the container's name
// (resolvable on the compose network, same as the
// container's own hostname).
func (d *DockerSupervisor) ListContainers(ctx context.Context) ([]Container, error) {
	filters := fmt.Sprintf(`{"label":["com.docker.compose.project=%s"]}`, d.projectName)
	url := "http://unix/containers/json?all=true&filters=" + filters
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("healthguard: docker list containers: status %d", resp.StatusCode)
	}
	var raw []dockerContainer
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]Container, 0, len(raw))
	for _, c := range raw {
		name := strings.TrimPrefix(firstOrEmpty(c.Names), "/")
		if name == "" {
			continue
		}
		out = append(out, Container{Name: name, Address: name})
	}
	return out, nil
}

// Restart asks the daemon to restart the named container with a
// generous grace period, matching docker-py's container.restart().
func (d *DockerSupervisor) Restart(ctx context.Context, name string) error {
	url := fmt.Sprintf("http://unix/containers/%s/restart?t=10", name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthguard: docker restart %s: status %d", name, resp.StatusCode)
	}
	return nil
}

func firstOrEmpty(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}
