package main

import (
	"os"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/cmd"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/log"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	renderFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "workers",
			Value: 0,
			Usage: "number of cpu tracers; 0 uses one tracer per cpu",
		},
		cli.StringFlag{
			Name:  "traversal, t",
			Value: "stack",
			Usage: "bvh traversal algorithm (recursive or stack)",
		},
		cli.Float64Flag{
			Name:  "max-dist",
			Value: 0,
			Usage: "maximum hit distance; 0 disables the limit",
		},
		cli.BoolFlag{
			Name:  "naive",
			Usage: "split frames evenly between tracers instead of balancing on render time",
		},
	}

	app := cli.NewApp()
	app.Name = "raycast"
	app.Usage = "cast rays against triangle meshes using a BVH"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile a mesh into a binary compressed scene",
			Description: `
Parse a mesh from a wavefront obj or gltf/glb file, build a BVH tree to optimize
ray intersection tests and pack the tree and the triangle vertices into float
textures.

The compiled scene is written to a zip archive next to the input file which can
be supplied as an argument to the render, info and trace commands.`,
			ArgsUsage: "scene_file1.obj scene_file2.glb ...",
			Action:    cmd.CompileScene,
		},
		{
			Name:      "info",
			Usage:     "print scene and bvh statistics",
			ArgsUsage: "scene_file",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:  "trace",
			Usage: "trace a single ray against a scene",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "origin",
					Value: "0,0.1,-20",
					Usage: "ray origin as x,y,z",
				},
				cli.StringFlag{
					Name:  "dir",
					Value: "0,0,1",
					Usage: "ray direction as x,y,z",
				},
				cli.StringFlag{
					Name:  "traversal, t",
					Value: "stack",
					Usage: "bvh traversal algorithm (recursive or stack)",
				},
				cli.Float64Flag{
					Name:  "max-dist",
					Value: 0,
					Usage: "maximum hit distance; 0 disables the limit",
				},
			},
			ArgsUsage: "scene_file",
			Action:    cmd.TraceRay,
		},
		{
			Name:   "render",
			Usage:  "render scene",
			Action: nil,
			Subcommands: []cli.Command{
				{
					Name:        "frame",
					Usage:       "render single frame",
					Description: `Render a single frame shaded by surface normal.`,
					Flags: append([]cli.Flag{
						cli.StringFlag{
							Name:  "out, o",
							Value: "frame.png",
							Usage: "image filename for the rendered frame (png or bmp)",
						},
					}, renderFlags...),
					ArgsUsage: "scene_file",
					Action:    cmd.RenderFrame,
				},
				{
					Name:  "interactive",
					Usage: "render interactive view of the scene",
					Description: `
Open a window with a continuously updating view of the scene. Use the mouse to
look around, WASD to move, Q/E to move up and down, TAB to toggle the block
assignment overlay and ESC to exit.`,
					Flags:     renderFlags,
					ArgsUsage: "scene_file",
					Action:    cmd.RenderInteractive,
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("raycast").Error(err)
		os.Exit(1)
	}
}
