package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/bnames/cmd/util"
	"github.com/tranvictor/bnames/networks"
)

// readNetworkConfig accepts either a json string or a path to a json file.
func readNetworkConfig(config string) (networks.Network, error) {
	config = strings.TrimSpace(config)
	if config == "" {
		return networks.Network{}, fmt.Errorf("pass the network json or a path to it with --json")
	}
	if strings.HasPrefix(config, "{") && strings.HasSuffix(config, "}") {
		n, err := networks.NewNetworkFromJSON([]byte(config))
		if err != nil {
			return networks.Network{}, fmt.Errorf("the provided json is not valid: %w", err)
		}
		return n, nil
	}
	content, err := os.ReadFile(config)
	if err != nil {
		return networks.Network{}, fmt.Errorf("couldn't read the provided json file: %w", err)
	}
	n, err := networks.NewNetworkFromJSON(content)
	if err != nil {
		return networks.Network{}, fmt.Errorf("the provided json is not a valid network config: %w", err)
	}
	return n, nil
}

func newNetworkCmd() *cobra.Command {
	networkCmd := &cobra.Command{
		Use:   "network",
		Short: "Manage the networks bnames supports",
	}

	listNetworkCmd := &cobra.Command{
		Use:   "list",
		Short: "Show all of the supported networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cmdutil.SessionFrom(cmd)
			if err != nil {
				return err
			}
			rows := [][]string{}
			for _, n := range s.Networks.All() {
				nodes := n.Nodes()
				names := make([]string, 0, len(nodes))
				for name := range nodes {
					names = append(names, name)
				}
				sort.Strings(names)
				urls := make([]string, 0, len(names))
				for _, name := range names {
					urls = append(urls, fmt.Sprintf("%s: %s", name, nodes[name]))
				}
				rows = append(rows, []string{
					n.Name,
					fmt.Sprintf("%d", n.ChainID),
					n.ParentDomain,
					n.NodeVariableName,
					strings.Join(urls, ", "),
				})
			}
			s.UI.Table([]string{"Name", "Chain ID", "Parent domain", "Node env var", "RPC nodes"}, rows)
			s.UI.Info("To add a network: bnames network add --json <json file>")
			s.UI.Info("To delete one, delete its json file in %s.", s.Networks.Dir())
			return nil
		},
	}

	var (
		config string
		force  bool
	)
	addNetworkCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a network to the supported networks locally",
		Long: `--json takes a network config json file path OR a json string in the following format:
	{
		"name": "base-fork",
		"alternative_names": ["fork"],
		"chain_id": 8453,
		"parent_domain": "base.eth",
		"reverse_domain": "80002105.reverse",
		"contracts": {
			"registry": "0x...",
			"resolver": "0x...",
			"registrar_controller": "0x...",
			"reverse_registrar": "0x..."
		},
		"reverse_registrar_kind": "v1",
		"index_url": "https://...",
		"block_time": 2,
		"node_variable_name": "BASE_FORK_NODE",
		"default_nodes": {"local": "http://127.0.0.1:8545"},
		"block_explorer_url": "https://basescan.org"
	}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cmdutil.SessionFrom(cmd)
			if err != nil {
				return err
			}
			n, err := readNetworkConfig(config)
			if err != nil {
				return err
			}
			for _, name := range append([]string{n.Name}, n.AlternativeNames...) {
				if _, err := s.Networks.Get(name); err == nil {
					if !force {
						return fmt.Errorf("network with name %s already exists, use --force to replace it", name)
					}
					s.UI.Warn("Network with name %s already exists, it will be replaced.", name)
				}
			}
			if err := s.Networks.Add(n); err != nil {
				return fmt.Errorf("failed to add the new network: %w", err)
			}
			s.UI.Success("Network %s with chain ID %d added and saved to %s.", n.Name, n.ChainID, s.Networks.Dir())
			return nil
		},
	}
	addNetworkCmd.Flags().StringVarP(&config, "json", "j", "", "path to the network config json file, or the json itself")
	addNetworkCmd.Flags().BoolVarP(&force, "force", "f", false, "replace a network that already exists")

	networkCmd.AddCommand(listNetworkCmd, addNetworkCmd)
	return networkCmd
}
